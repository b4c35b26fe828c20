package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ecom_proj/internal/events"
	"github.com/Skotchmaster/ecom_proj/internal/logging"
	"github.com/Skotchmaster/ecom_proj/internal/models"
	"github.com/Skotchmaster/ecom_proj/internal/repo"
	"github.com/Skotchmaster/ecom_proj/internal/transport"
)

const publishTimeout = 5 * time.Second

// prices are stored as decimal(12,2)
var maxPrice = decimal.New(1, 10)

// ProductIndex is the external keyword index. Search returns product ids.
type ProductIndex interface {
	Index(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int) error
	Search(ctx context.Context, keyword string) ([]int, error)
}

type CatalogService struct {
	Repo   repo.ProductRepo
	Index  ProductIndex
	Events events.Publisher
}

// NewCatalogService wires the service. idx may be nil, search then runs
// against the database only.
func NewCatalogService(r repo.ProductRepo, idx ProductIndex, pub events.Publisher) *CatalogService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &CatalogService{Repo: r, Index: idx, Events: pub}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fail(ErrNotFound, "Product not found")
	}
	return p, err
}

// GetImage returns the product with its image bytes loaded.
func (s *CatalogService) GetImage(ctx context.Context, id int) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.HasImage() {
		return nil, fail(ErrNotFound, "Product image not found")
	}
	return p, nil
}

func validateProduct(in transport.ProductRequest) error {
	if strings.TrimSpace(in.Name) == "" {
		return fail(ErrValidation, "Product name is required")
	}
	if in.Price.IsNegative() {
		return fail(ErrValidation, "Price must not be negative")
	}
	if !in.Price.Equal(in.Price.Truncate(2)) {
		return fail(ErrValidation, "Price must have at most 2 decimal places")
	}
	if in.Price.GreaterThanOrEqual(maxPrice) {
		return fail(ErrValidation, "Price must be less than %s", maxPrice)
	}
	if in.Quantity < 0 {
		return fail(ErrValidation, "Quantity must not be negative")
	}
	return nil
}

func applyProduct(p *models.Product, in transport.ProductRequest) {
	p.Name = in.Name
	p.Description = in.Description
	p.Brand = in.Brand
	p.Price = in.Price
	p.Category = in.Category
	p.ReleaseDate = in.ReleaseDate
	p.Available = in.Available
	p.Quantity = in.Quantity
}

func applyImage(p *models.Product, img *transport.ImageUpload) {
	p.ImageName = img.Filename
	p.ImageType = img.ContentType
	p.ImageData = img.Data
}

func (s *CatalogService) CreateProduct(ctx context.Context, in transport.ProductRequest, img *transport.ImageUpload) (*models.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	if img.Empty() {
		return nil, fail(ErrValidation, "Image file is required")
	}

	p := &models.Product{}
	applyProduct(p, in)
	applyImage(p, img)

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.sync(ctx, events.ProductCreated, p)
	return p, nil
}

// UpdateProduct overwrites every scalar field. The stored image is replaced
// only when img carries bytes.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int, in transport.ProductRequest, img *transport.ImageUpload) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	applyProduct(p, in)
	if !img.Empty() {
		applyImage(p, img)
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fail(ErrNotFound, "Product not found")
		}
		return nil, err
	}

	s.sync(ctx, events.ProductUpdated, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(ErrNotFound, "Product not found")
		}
		return err
	}

	s.sync(ctx, events.ProductDeleted, &models.Product{ID: id})
	return nil
}

// SearchProducts asks the index first and falls back to the database when
// there is no index or it fails.
func (s *CatalogService) SearchProducts(ctx context.Context, keyword string) ([]models.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.Repo.ListProducts(ctx)
	}

	if s.Index != nil {
		ids, err := s.Index.Search(ctx, keyword)
		if err == nil {
			return s.Repo.ListProductsByIDs(ctx, ids)
		}
		logging.FromContext(ctx).Warn("search_index_error", "reason", "falling back to database search", "error", err)
	}
	return s.Repo.SearchProducts(ctx, keyword)
}

// sync pushes a product write to the index and the event stream. Failures
// are logged and never fail the request.
func (s *CatalogService) sync(ctx context.Context, typ string, p *models.Product) {
	l := logging.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if s.Index != nil {
		var err error
		if typ == events.ProductDeleted {
			err = s.Index.Delete(ctx, p.ID)
		} else {
			err = s.Index.Index(ctx, p)
		}
		if err != nil {
			l.Warn("search_index_sync_error", "product_id", p.ID, "event", typ, "error", err)
		}
	}

	payload := events.ProductPayload{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  p.Quantity,
		Available: p.Available,
	}
	if err := s.Events.Publish(ctx, events.TopicProducts, strconv.Itoa(p.ID), events.New(typ, payload)); err != nil {
		l.Error("kafka_publish_error", "topic", events.TopicProducts, "event", typ, "error", err)
	}
}
