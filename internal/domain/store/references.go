package store

// Reference describes a singular association held as a foreign key on Owner.
// When Inverse is set, Target exposes the owners as a child set under that name.
type Reference struct {
	Name     string
	Owner    string
	Target   string
	Field    string
	JSON     string
	Column   string
	View     string
	Required bool
	Inverse  string
}

var references = []Reference{
	{
		Name: "category", Owner: EntityProduct, Target: EntityProductCategory,
		Field: "CategoryID", JSON: "productCategoryId", Column: "product_category_id", View: "Category",
		Inverse: "products",
	},
	{
		Name: "customerDetails", Owner: EntityShoppingCart, Target: EntityCustomerDetails,
		Field: "CustomerDetailsID", JSON: "customerDetailsId", Column: "customer_details_id", View: "CustomerDetails",
		Required: true, Inverse: "shopping-carts",
	},
	{
		Name: "product", Owner: EntityProductOrder, Target: EntityProduct,
		Field: "ProductID", JSON: "productId", Column: "product_id", View: "Product",
		Required: true,
	},
	{
		Name: "cart", Owner: EntityProductOrder, Target: EntityShoppingCart,
		Field: "CartID", JSON: "cartId", Column: "cart_id", View: "Cart",
		Required: true, Inverse: "product-orders",
	},
}

// ReferencesFrom lists the singular associations declared on owner.
func ReferencesFrom(owner string) []Reference {
	var out []Reference
	for _, r := range references {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out
}

// ReferencesTo lists every association, owned or one-directional, pointing at target.
func ReferencesTo(target string) []Reference {
	var out []Reference
	for _, r := range references {
		if r.Target == target {
			out = append(out, r)
		}
	}
	return out
}

// LookupReference finds owner's association by name.
func LookupReference(owner, name string) (Reference, bool) {
	for _, r := range references {
		if r.Owner == owner && r.Name == name {
			return r, true
		}
	}
	return Reference{}, false
}

// LookupInverse finds the association that exposes target's child set under name.
func LookupInverse(target, name string) (Reference, bool) {
	for _, r := range references {
		if r.Target == target && r.Inverse != "" && r.Inverse == name {
			return r, true
		}
	}
	return Reference{}, false
}

var tables = map[string]string{
	EntityProductCategory: ProductCategory{}.TableName(),
	EntityProduct:         Product{}.TableName(),
	EntityCustomerDetails: CustomerDetails{}.TableName(),
	EntityShoppingCart:    ShoppingCart{}.TableName(),
	EntityProductOrder:    ProductOrder{}.TableName(),
}

// Table returns the table an entity name is stored in.
func Table(entity string) (string, bool) {
	t, ok := tables[entity]
	return t, ok
}
