package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ecom_proj/internal/events"
	"github.com/Skotchmaster/ecom_proj/internal/logging"
	"github.com/Skotchmaster/ecom_proj/internal/models"
	"github.com/Skotchmaster/ecom_proj/internal/repo"
)

// Rejection reasons reported to the RejectionCounter.
const (
	ReasonInvalidQuantity   = "invalid_quantity"
	ReasonProductNotFound   = "product_not_found"
	ReasonUnavailable       = "unavailable"
	ReasonInsufficientStock = "insufficient_stock"
)

type RejectionCounter interface {
	CartRejected(reason string)
}

type CartService struct {
	Repo       repo.CartRepo
	Events     events.Publisher
	Rejections RejectionCounter
}

func NewCartService(r repo.CartRepo, pub events.Publisher, rc RejectionCounter) *CartService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &CartService{Repo: r, Events: pub, Rejections: rc}
}

func (s *CartService) List(ctx context.Context) ([]models.CartItem, error) {
	return s.Repo.ListItems(ctx)
}

func (s *CartService) Get(ctx context.Context, id int) (*models.CartItem, error) {
	item, err := s.Repo.GetItem(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fail(ErrNotFound, "Cart item not found")
	}
	return item, err
}

// Add puts quantity units of the product into the cart, merging with the
// existing line for that product. Stock is checked against the merged
// quantity while the product row is locked, it is not reserved.
func (s *CartService) Add(ctx context.Context, productID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		s.reject(ReasonInvalidQuantity)
		return nil, fail(ErrValidation, "Quantity must be greater than 0")
	}

	var saved *models.CartItem
	merged := false
	err := s.Repo.WithProductLock(ctx, productID, func(tx repo.CartTx) error {
		p := tx.Product()
		if !p.Available {
			s.reject(ReasonUnavailable)
			return fail(ErrProductUnavailable, "Product is not available")
		}
		if quantity > p.Quantity {
			s.reject(ReasonInsufficientStock)
			return fail(ErrInsufficientStock, "Insufficient stock. Available: %d", p.Quantity)
		}

		item, err := tx.FindByProduct(productID)
		switch {
		case err == nil:
			total := item.Quantity + quantity
			if total > p.Quantity {
				s.reject(ReasonInsufficientStock)
				return fail(ErrInsufficientStock, "Insufficient stock for requested quantity")
			}
			item.Quantity = total
			merged = true
		case errors.Is(err, repo.ErrNotFound):
			item = &models.CartItem{ProductID: productID, Quantity: quantity}
		default:
			return err
		}

		if err := tx.SaveItem(item); err != nil {
			return err
		}
		item.Product = p
		saved = item
		return nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		s.reject(ReasonProductNotFound)
		return nil, fail(ErrNotFound, "Product not found")
	}
	if err != nil {
		return nil, err
	}

	typ := events.CartItemAdded
	if merged {
		typ = events.CartItemUpdated
	}
	s.publish(ctx, typ, saved.ID, events.CartPayload{CartItemID: saved.ID, ProductID: saved.ProductID, Quantity: saved.Quantity})
	return saved, nil
}

// Update sets the quantity of an existing line.
func (s *CartService) Update(ctx context.Context, cartID, quantity int) (*models.CartItem, error) {
	current, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		s.reject(ReasonInvalidQuantity)
		return nil, fail(ErrValidation, "Quantity must be greater than 0")
	}

	var saved *models.CartItem
	err = s.Repo.WithProductLock(ctx, current.ProductID, func(tx repo.CartTx) error {
		item, err := tx.GetItem(cartID)
		if err != nil {
			return err
		}
		p := tx.Product()
		if quantity > p.Quantity {
			s.reject(ReasonInsufficientStock)
			return fail(ErrInsufficientStock, "Insufficient stock. Available: %d", p.Quantity)
		}

		item.Quantity = quantity
		if err := tx.SaveItem(item); err != nil {
			return err
		}
		item.Product = p
		saved = item
		return nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		// the line or its product went away after the first lookup
		return nil, fail(ErrNotFound, "Cart item not found")
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.CartItemUpdated, saved.ID, events.CartPayload{CartItemID: saved.ID, ProductID: saved.ProductID, Quantity: saved.Quantity})
	return saved, nil
}

// Delete removes a line. Unknown ids are a no-op.
func (s *CartService) Delete(ctx context.Context, cartID int) error {
	if err := s.Repo.DeleteItem(ctx, cartID); err != nil {
		return err
	}
	s.publish(ctx, events.CartItemDeleted, cartID, events.CartPayload{CartItemID: cartID})
	return nil
}

func (s *CartService) Clear(ctx context.Context) error {
	if err := s.Repo.Clear(ctx); err != nil {
		return err
	}
	s.publish(ctx, events.CartCleared, 0, nil)
	return nil
}

// Total is the exact sum of all line subtotals, zero for an empty cart.
func (s *CartService) Total(ctx context.Context) (decimal.Decimal, error) {
	items, err := s.Repo.ListItems(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total, nil
}

func (s *CartService) reject(reason string) {
	if s.Rejections != nil {
		s.Rejections.CartRejected(reason)
	}
}

func (s *CartService) publish(ctx context.Context, typ string, key int, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.Events.Publish(ctx, events.TopicCart, strconv.Itoa(key), events.New(typ, payload)); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", events.TopicCart, "event", typ, "error", err)
	}
}
