package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// prices and totals go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          int             `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name        string          `gorm:"not null"                     json:"name"`
	Description string          `gorm:"column:description"           json:"desc"`
	Brand       string          `                                    json:"brand"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"price"`
	Category    string          `gorm:"index"                        json:"category"`
	ReleaseDate Date            `gorm:"column:release_date"          json:"release_date"`
	Available   bool            `gorm:"not null;default:false"       json:"available"`
	Quantity    int             `gorm:"not null;default:0"           json:"quantity"`
	ImageName   string          `                                    json:"imageName"`
	ImageType   string          `                                    json:"imageType"`
	ImageData   []byte          `                                    json:"-"`
	CreatedAt   time.Time       `                                    json:"-"`
	UpdatedAt   time.Time       `                                    json:"-"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) HasImage() bool {
	return len(p.ImageData) > 0
}

type CartItem struct {
	ID        int      `gorm:"primaryKey;autoIncrement"                        json:"id"`
	ProductID int      `gorm:"uniqueIndex;not null"                            json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product"`
	Quantity  int      `gorm:"not null;check:quantity>0"                       json:"quantity"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Subtotal is price × quantity, zero when the product is not loaded.
func (c CartItem) Subtotal() decimal.Decimal {
	if c.Product == nil {
		return decimal.Zero
	}
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

func (c CartItem) MarshalJSON() ([]byte, error) {
	type alias CartItem
	return json.Marshal(struct {
		alias
		Subtotal decimal.Decimal `json:"subtotal"`
	}{alias(c), c.Subtotal()})
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	CreatedAt    time.Time `                                json:"-"`
}

func (User) TableName() string {
	return "users"
}
