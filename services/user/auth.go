package user

import (
	"context"
	"crypto/subtle"
	"io"
	"regexp"
	"strings"
	"time"

	"studybuddy/models"
	"studybuddy/services/storage"
	"studybuddy/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// errBadCredentials is the single answer for any failed login.
var errBadCredentials = utils.Unauthorized("invalid username or password")

func (s *DefaultUserService) Signup(ctx context.Context, input models.SignupInput, avatar io.Reader, client ClientInfo) (*AuthResponse, error) {
	input.Username = strings.TrimSpace(input.Username)
	if !usernamePattern.MatchString(input.Username) {
		return nil, utils.InvalidInput("username must be 3-32 letters, digits, dots, dashes or underscores")
	}
	if len(input.Password) < minPasswordLength {
		return nil, utils.InvalidInput("password must be at least %d characters", minPasswordLength)
	}
	exists, err := s.Repo.Exists(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, utils.Conflict("username %s is taken", input.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost())
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		PasswordHash: string(hash),
		University:   strings.TrimSpace(input.University),
		Courses:      cleanCourses(input.Courses),
		Bio:          input.Bio,
		AvatarURL:    s.DefaultAvatarURL,
		Buddies:      []string{},
	}
	if avatar != nil {
		uploaded, err := s.Storage.UploadAvatar(ctx, avatar, user.Username)
		switch {
		case err == storage.ErrStorageDisabled:
			s.Logger.Warn("avatar ignored, storage disabled", zap.String("username", user.Username))
		case err != nil:
			return nil, err
		default:
			user.AvatarURL = uploaded.URL
			user.AvatarID = uploaded.PublicID
		}
	}

	if err := s.Repo.Create(ctx, user); err != nil {
		if user.AvatarID != "" {
			s.deleteAvatar(ctx, user.AvatarID)
		}
		return nil, err
	}
	s.Logger.Info("user signed up", zap.String("username", user.Username), zap.String("userId", user.ID))
	return s.openSession(ctx, user, client)
}

func (s *DefaultUserService) Login(ctx context.Context, username, password string, client ClientInfo) (*AuthResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, utils.InvalidInput("username and password are required")
	}
	user, err := s.Repo.GetByUsername(ctx, username)
	if utils.IsKind(err, utils.KindNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}

	switch {
	case user.PasswordHash != "":
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			return nil, errBadCredentials
		}
	case user.LegacyPassword != "":
		if subtle.ConstantTimeCompare([]byte(user.LegacyPassword), []byte(password)) != 1 {
			return nil, errBadCredentials
		}
		if err := s.upgradeLegacyPassword(ctx, user.Username, password); err != nil {
			return nil, err
		}
	default:
		return nil, errBadCredentials
	}

	s.Logger.Info("user logged in", zap.String("username", user.Username), zap.String("ip", client.IP))
	return s.openSession(ctx, user, client)
}

func (s *DefaultUserService) upgradeLegacyPassword(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost())
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateFields(ctx, username, bson.M{"passwordHash": string(hash), "password": ""}); err != nil {
		return err
	}
	s.Logger.Info("legacy password upgraded", zap.String("username", username))
	return nil
}

func (s *DefaultUserService) openSession(ctx context.Context, user *models.User, client ClientInfo) (*AuthResponse, error) {
	session := utils.AuthSession{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		IP:        client.IP,
		UserAgent: client.UserAgent,
		CreatedAt: time.Now(),
	}
	if err := s.Sessions.Save(ctx, session, s.SessionTTL); err != nil {
		return nil, err
	}
	token, err := utils.GenerateToken(s.JWTSecret, session, s.SessionTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		ID:        user.ID,
		Username:  user.Username,
		Token:     token,
		ExpiresAt: session.CreatedAt.Add(s.SessionTTL),
	}, nil
}

func (s *DefaultUserService) Logout(ctx context.Context, actor models.Identity) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if err := s.Sessions.Delete(ctx, actor.SessionID); err != nil {
		return err
	}
	s.Logger.Info("user logged out", zap.String("username", actor.Username))
	return nil
}

func (s *DefaultUserService) ResolveSession(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, utils.Unauthorized("login required")
	}
	claims, err := utils.ParseToken(s.JWTSecret, token)
	if err != nil {
		return models.Identity{}, utils.Unauthorized("invalid session token")
	}
	session, err := s.Sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return models.Identity{}, err
	}
	if session.UserID != claims.Subject {
		return models.Identity{}, utils.Unauthorized("invalid session token")
	}
	return models.Identity{UserID: session.UserID, Username: session.Username, SessionID: session.SessionID}, nil
}

func cleanCourses(courses []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, c := range courses {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func (s *DefaultUserService) deleteAvatar(ctx context.Context, publicID string) {
	if err := s.Storage.DeleteFile(ctx, publicID); err != nil {
		s.Logger.Warn("failed to delete avatar", zap.String("publicId", publicID), zap.Error(err))
	}
}
