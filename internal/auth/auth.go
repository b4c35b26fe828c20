package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ecom_proj/internal/models"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	minPasswordLen = 6

	uniqueViolation = "23505"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type Principal struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Authenticator checks a username and password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Principal, error)
}

// Service keeps credentials in the users table and issues access tokens.
type Service struct {
	DB        *gorm.DB
	JWTSecret []byte
	TokenTTL  time.Duration
	now       func() time.Time
}

func NewService(db *gorm.DB, secret []byte) *Service {
	return &Service{DB: db, JWTSecret: secret, TokenTTL: 15 * time.Minute, now: time.Now}
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	return s.createUser(ctx, username, password, RoleUser)
}

// EnsureAdmin creates the admin account when it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.createUser(ctx, username, password, RoleAdmin)
	if errors.Is(err, ErrUserExists) {
		return nil
	}
	return err
}

func (s *Service) createUser(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < minPasswordLen {
		return nil, fmt.Errorf("username is required and password needs %d characters: %w", minPasswordLen, ErrInvalidInput)
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		// a concurrent registration can win between the count and the insert
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// isUniqueViolation covers gorm's translated error and raw lib/pq errors,
// which the postgres dialector does not translate.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &Principal{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}
