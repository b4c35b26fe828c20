package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ecom_proj/internal/models"
)

var ErrNotFound = errors.New("record not found")

type ProductRepo interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListProductsByIDs(ctx context.Context, ids []int) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int) error
	SearchProducts(ctx context.Context, keyword string) ([]models.Product, error)
}

type CartRepo interface {
	ListItems(ctx context.Context) ([]models.CartItem, error)
	GetItem(ctx context.Context, id int) (*models.CartItem, error)
	FindByProduct(ctx context.Context, productID int) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, id int) error
	Clear(ctx context.Context) error
	WithProductLock(ctx context.Context, productID int, fn func(tx CartTx) error) error
}

// CartTx is the view of the cart store inside WithProductLock. Everything
// done through it commits or rolls back together.
type CartTx interface {
	// Product is the locked product row.
	Product() *models.Product
	GetItem(id int) (*models.CartItem, error)
	FindByProduct(productID int) (*models.CartItem, error)
	SaveItem(item *models.CartItem) error
}

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
