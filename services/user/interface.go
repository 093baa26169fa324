package user

import (
	"context"
	"io"
	"time"

	userRepo "studybuddy/database/repository/user"
	"studybuddy/models"
	"studybuddy/services/storage"
	"studybuddy/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService covers accounts, login sessions and profiles.
type UserService interface {
	// Signup creates an account and logs it in. avatar may be nil.
	Signup(ctx context.Context, input models.SignupInput, avatar io.Reader, client ClientInfo) (*AuthResponse, error)
	// Login verifies credentials and opens a new session.
	Login(ctx context.Context, username, password string, client ClientInfo) (*AuthResponse, error)
	// Logout ends the identity's session.
	Logout(ctx context.Context, actor models.Identity) error
	// ResolveSession maps a session token onto the identity it was issued to.
	ResolveSession(ctx context.Context, token string) (models.Identity, error)

	GetProfile(ctx context.Context, actor models.Identity) (*models.User, error)
	UpdateProfile(ctx context.Context, actor models.Identity, update models.ProfileUpdate, avatar io.Reader) (*models.User, error)
	AvatarURL(ctx context.Context, username string) (string, error)
	SetAvailable(ctx context.Context, actor models.Identity, available bool) error
	SetLocation(ctx context.Context, actor models.Identity, lat, lng float64) error
	SetFCMToken(ctx context.Context, actor models.Identity, token string) error
	AddReviews(ctx context.Context, actor models.Identity, reviews []models.Review) error
	Peers(ctx context.Context, actor models.Identity) ([]models.User, error)
	SetViewBuddy(ctx context.Context, actor models.Identity, username string) error
	GetViewBuddy(ctx context.Context, actor models.Identity) (*models.User, error)
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ClientInfo describes where a login came from.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo     userRepo.UserRepository
	Sessions utils.SessionStore
	Storage  storage.StorageService
	// Avatars is optional.
	Avatars  AvatarCache
	Logger   *zap.Logger

	JWTSecret        []byte
	SessionTTL       time.Duration
	DefaultAvatarURL string
	HashCost         int
}

func (s *DefaultUserService) hashCost() int {
	if s.HashCost == 0 {
		return bcrypt.DefaultCost
	}
	return s.HashCost
}
