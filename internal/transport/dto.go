package transport

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ecom_proj/internal/models"
)

// ProductRequest is the "product" part of a create or update request.
type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"desc"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ReleaseDate models.Date     `json:"release_date"`
	Available   bool            `json:"available"`
	Quantity    int             `json:"quantity"`
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u *ImageUpload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
