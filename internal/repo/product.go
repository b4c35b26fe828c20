package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ecom_proj/internal/models"
)

// image bytes are only read when a single product is loaded
const imageColumn = "image_data"

func (r *GormRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Omit(imageColumn).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListProductsByIDs returns the products in the order of ids, skipping ids
// that no longer exist.
func (r *GormRepo) ListProductsByIDs(ctx context.Context, ids []int) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	var found []models.Product
	if err := r.DB.WithContext(ctx).Omit(imageColumn).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[int]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	items := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			items = append(items, p)
			delete(byID, id)
		}
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	if p.ID == 0 {
		return ErrNotFound
	}
	res := r.DB.WithContext(ctx).Model(p).Select("*").Omit("created_at").Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes the product together with the cart lines that
// reference it.
func (r *GormRepo) DeleteProduct(ctx context.Context, id int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SearchProducts matches keyword as a case-insensitive substring of name,
// description, brand or category. An empty keyword lists everything.
func (r *GormRepo) SearchProducts(ctx context.Context, keyword string) ([]models.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return r.ListProducts(ctx)
	}

	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	var items []models.Product
	err := r.DB.WithContext(ctx).
		Omit(imageColumn).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).
		Or(`LOWER(description) LIKE ? ESCAPE '\'`, pattern).
		Or(`LOWER(brand) LIKE ? ESCAPE '\'`, pattern).
		Or(`LOWER(category) LIKE ? ESCAPE '\'`, pattern).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
