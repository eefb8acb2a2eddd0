package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type Repos struct {
	ProductCategory repos.ProductCategoryRepo
	Product         repos.ProductRepo
	CustomerDetails repos.CustomerDetailsRepo
	ShoppingCart    repos.ShoppingCartRepo
	ProductOrder    repos.ProductOrderRepo
	Change          repos.ChangeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) (Repos, error) {
	log.Info("Wiring repos...")
	var (
		out Repos
		err error
	)
	if out.ProductCategory, err = repos.NewProductCategoryRepo(db, log); err != nil {
		return Repos{}, fmt.Errorf("product category repo: %w", err)
	}
	if out.Product, err = repos.NewProductRepo(db, log); err != nil {
		return Repos{}, fmt.Errorf("product repo: %w", err)
	}
	if out.CustomerDetails, err = repos.NewCustomerDetailsRepo(db, log); err != nil {
		return Repos{}, fmt.Errorf("customer details repo: %w", err)
	}
	if out.ShoppingCart, err = repos.NewShoppingCartRepo(db, log); err != nil {
		return Repos{}, fmt.Errorf("shopping cart repo: %w", err)
	}
	if out.ProductOrder, err = repos.NewProductOrderRepo(db, log); err != nil {
		return Repos{}, fmt.Errorf("product order repo: %w", err)
	}
	out.Change = repos.NewChangeRepo(db, log)
	return out, nil
}
