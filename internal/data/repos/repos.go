package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos/changelog"
	"github.com/yungbote/storefront-backend/internal/data/repos/entity"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type ProductCategoryRepo = entity.Repo[store.ProductCategory]
type ProductRepo = entity.Repo[store.Product]
type CustomerDetailsRepo = entity.Repo[store.CustomerDetails]
type ShoppingCartRepo = entity.Repo[store.ShoppingCart]
type ProductOrderRepo = entity.Repo[store.ProductOrder]

type ChangeRepo = changelog.ChangeRepo
type ChangeFilter = changelog.ChangeFilter

type Page = entity.Page
type Order = entity.Order

func views(owner string) []string {
	var out []string
	for _, ref := range store.ReferencesFrom(owner) {
		out = append(out, ref.View)
	}
	return out
}

func NewProductCategoryRepo(db *gorm.DB, log *logger.Logger) (ProductCategoryRepo, error) {
	return entity.NewRepo[store.ProductCategory](db, log, "ProductCategory", views(store.EntityProductCategory)...)
}

func NewProductRepo(db *gorm.DB, log *logger.Logger) (ProductRepo, error) {
	return entity.NewRepo[store.Product](db, log, "Product", views(store.EntityProduct)...)
}

func NewCustomerDetailsRepo(db *gorm.DB, log *logger.Logger) (CustomerDetailsRepo, error) {
	return entity.NewRepo[store.CustomerDetails](db, log, "CustomerDetails", views(store.EntityCustomerDetails)...)
}

func NewShoppingCartRepo(db *gorm.DB, log *logger.Logger) (ShoppingCartRepo, error) {
	return entity.NewRepo[store.ShoppingCart](db, log, "ShoppingCart", views(store.EntityShoppingCart)...)
}

func NewProductOrderRepo(db *gorm.DB, log *logger.Logger) (ProductOrderRepo, error) {
	return entity.NewRepo[store.ProductOrder](db, log, "ProductOrder", views(store.EntityProductOrder)...)
}

func NewChangeRepo(db *gorm.DB, log *logger.Logger) ChangeRepo {
	return changelog.NewChangeRepo(db, log)
}
