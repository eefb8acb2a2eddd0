package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entity names as used in error messages, alert headers and the change log.
const (
	EntityProductCategory = "productCategory"
	EntityProduct         = "product"
	EntityCustomerDetails = "customerDetails"
	EntityShoppingCart    = "shoppingCart"
	EntityProductOrder    = "productOrder"
)

// Scalar fields are pointers so an explicit null survives decoding. Fields tagged
// merge:"-" are read-side views of a singular association, filled only by eager loads.

type ProductCategory struct {
	Base
	Name        *string `gorm:"column:name;not null" json:"name" validate:"required"`
	Description *string `gorm:"column:description" json:"description"`
}

func (ProductCategory) TableName() string { return "product_category" }

type Product struct {
	Base
	Name             *string          `gorm:"column:name" json:"name"`
	Description      *string          `gorm:"column:description" json:"description"`
	Price            *decimal.Decimal `gorm:"column:price;type:numeric(21,2)" json:"price"`
	ProductSize      *Size            `gorm:"column:product_size;type:varchar(8)" json:"productSize" validate:"omitempty,enum"`
	Image            []byte           `gorm:"column:image" json:"image"`
	ImageContentType *string          `gorm:"column:image_content_type" json:"imageContentType"`

	CategoryID *uuid.UUID       `gorm:"type:uuid;column:product_category_id;index" json:"productCategoryId"`
	Category   *ProductCategory `gorm:"foreignKey:CategoryID" json:"productCategory,omitempty" merge:"-" validate:"-"`
}

func (Product) TableName() string { return "product" }

type CustomerDetails struct {
	Base
	Gender       *Gender `gorm:"column:gender;type:varchar(8)" json:"gender" validate:"omitempty,enum"`
	Phone        *string `gorm:"column:phone" json:"phone"`
	AddressLine1 *string `gorm:"column:address_line1" json:"addressLine1"`
	AddressLine2 *string `gorm:"column:address_line2" json:"addressLine2"`
	City         *string `gorm:"column:city" json:"city"`
	Country      *string `gorm:"column:country" json:"country"`
}

func (CustomerDetails) TableName() string { return "customer_details" }

type ShoppingCart struct {
	Base
	PlacedDate       *time.Time       `gorm:"column:placed_date;not null" json:"placedDate" validate:"required"`
	Status           *OrderStatus     `gorm:"column:status;type:varchar(16);not null" json:"status" validate:"required,enum"`
	TotalPrice       *decimal.Decimal `gorm:"column:total_price;type:numeric(21,2);not null" json:"totalPrice" validate:"required"`
	PaymentMethod    *PaymentMethod   `gorm:"column:payment_method;type:varchar(16);not null" json:"paymentMethod" validate:"required,enum"`
	PaymentReference *string          `gorm:"column:payment_reference" json:"paymentReference"`

	CustomerDetailsID *uuid.UUID       `gorm:"type:uuid;column:customer_details_id;index" json:"customerDetailsId" validate:"required"`
	CustomerDetails   *CustomerDetails `gorm:"foreignKey:CustomerDetailsID" json:"customerDetails,omitempty" merge:"-" validate:"-"`
}

func (ShoppingCart) TableName() string { return "shopping_cart" }

type ProductOrder struct {
	Base
	Quantity   *int             `gorm:"column:quantity;not null" json:"quantity" validate:"required,min=0"`
	TotalPrice *decimal.Decimal `gorm:"column:total_price;type:numeric(21,2);not null" json:"totalPrice" validate:"required"`

	ProductID *uuid.UUID    `gorm:"type:uuid;column:product_id;index" json:"productId" validate:"required"`
	Product   *Product      `gorm:"foreignKey:ProductID" json:"product,omitempty" merge:"-" validate:"-"`
	CartID    *uuid.UUID    `gorm:"type:uuid;column:cart_id;index" json:"cartId" validate:"required"`
	Cart      *ShoppingCart `gorm:"foreignKey:CartID" json:"cart,omitempty" merge:"-" validate:"-"`
}

func (ProductOrder) TableName() string { return "product_order" }

// ClearViews drops eagerly loaded association objects so only foreign keys are written.
func (p *Product) ClearViews()         { p.Category = nil }
func (c *ShoppingCart) ClearViews()    { c.CustomerDetails = nil }
func (o *ProductOrder) ClearViews()    { o.Product, o.Cart = nil, nil }
func (c *ProductCategory) ClearViews() {}
func (c *CustomerDetails) ClearViews() {}
