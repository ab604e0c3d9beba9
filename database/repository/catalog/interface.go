package catalogRepo

import (
	"context"
	"errors"

	"babyspa/models"
)

var (
	ErrPackageNotFound   = errors.New("package not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository reads the package/product catalog and deducts inventory.
// Stock CRUD beyond the quantity deduction lives outside this core.
type Repository interface {
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListActivePackages(ctx context.Context) ([]models.Package, error)

	// DeductStock decrements a product's stock, only while stock >= qty.
	DeductStock(ctx context.Context, productID string, qty int) error
}
