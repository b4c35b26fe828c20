package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/ecom_proj/internal/models"
)

func preloadProduct(db *gorm.DB) *gorm.DB {
	return db.Preload("Product", func(db *gorm.DB) *gorm.DB {
		return db.Omit(imageColumn)
	})
}

func (r *GormRepo) ListItems(ctx context.Context) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := preloadProduct(r.DB.WithContext(ctx)).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetItem(ctx context.Context, id int) (*models.CartItem, error) {
	return getItem(r.DB.WithContext(ctx), id)
}

func (r *GormRepo) FindByProduct(ctx context.Context, productID int) (*models.CartItem, error) {
	return findByProduct(r.DB.WithContext(ctx), productID)
}

func (r *GormRepo) SaveItem(ctx context.Context, item *models.CartItem) error {
	return saveItem(r.DB.WithContext(ctx), item)
}

// DeleteItem is a no-op for unknown ids.
func (r *GormRepo) DeleteItem(ctx context.Context, id int) error {
	return r.DB.WithContext(ctx).Delete(&models.CartItem{}, id).Error
}

func (r *GormRepo) Clear(ctx context.Context) error {
	return r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CartItem{}).Error
}

// WithProductLock runs fn in a transaction that holds a row lock on the
// product. On SQLite the single writer connection gives the same guarantee.
func (r *GormRepo) WithProductLock(ctx context.Context, productID int, fn func(tx CartTx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := lockProduct(tx).First(&product, productID).Error; err != nil {
			return translate(err)
		}
		return fn(&gormCartTx{tx: tx, product: &product})
	})
}

// lockProduct selects the product row FOR UPDATE where the dialect has row
// locks.
func lockProduct(tx *gorm.DB) *gorm.DB {
	q := tx.Omit(imageColumn)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

type gormCartTx struct {
	tx      *gorm.DB
	product *models.Product
}

func (t *gormCartTx) Product() *models.Product {
	return t.product
}

func (t *gormCartTx) GetItem(id int) (*models.CartItem, error) {
	return getItem(t.tx, id)
}

func (t *gormCartTx) FindByProduct(productID int) (*models.CartItem, error) {
	return findByProduct(t.tx, productID)
}

func (t *gormCartTx) SaveItem(item *models.CartItem) error {
	return saveItem(t.tx, item)
}

func getItem(db *gorm.DB, id int) (*models.CartItem, error) {
	var item models.CartItem
	if err := preloadProduct(db).First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func findByProduct(db *gorm.DB, productID int) (*models.CartItem, error) {
	var item models.CartItem
	if err := preloadProduct(db).Where("product_id = ?", productID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// saveItem never writes through to the embedded product.
func saveItem(db *gorm.DB, item *models.CartItem) error {
	return db.Omit(clause.Associations).Save(item).Error
}
