package user

import (
	"context"
	"io"
	"strings"

	"studybuddy/models"
	"studybuddy/services/storage"
	"studybuddy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func (s *DefaultUserService) GetProfile(ctx context.Context, actor models.Identity) (*models.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	return s.Repo.GetByUsername(ctx, actor.Username)
}

// UpdateProfile applies the provided fields. A new avatar replaces the old one, which
// is deleted once the profile points at the new image.
func (s *DefaultUserService) UpdateProfile(ctx context.Context, actor models.Identity, update models.ProfileUpdate, avatar io.Reader) (*models.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	current, err := s.Repo.GetByUsername(ctx, actor.Username)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if update.University != nil {
		fields["university"] = strings.TrimSpace(*update.University)
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if update.Courses != nil {
		fields["courses"] = cleanCourses(update.Courses)
	}
	if avatar != nil {
		uploaded, err := s.Storage.UploadAvatar(ctx, avatar, actor.Username)
		if err == storage.ErrStorageDisabled {
			return nil, utils.Unavailable(err, "avatar uploads are not available")
		}
		if err != nil {
			return nil, err
		}
		fields["avatarUrl"] = uploaded.URL
		fields["avatarId"] = uploaded.PublicID
	}
	if len(fields) == 0 {
		return current, nil
	}

	if err := s.Repo.UpdateFields(ctx, actor.Username, fields); err != nil {
		return nil, err
	}
	if avatar != nil {
		if s.Avatars != nil {
			s.Avatars.Delete(ctx, actor.Username)
		}
		if current.AvatarID != "" {
			s.deleteAvatar(ctx, current.AvatarID)
		}
	}
	s.Logger.Info("profile updated", zap.String("username", actor.Username), zap.Int("fields", len(fields)))
	return s.Repo.GetByUsername(ctx, actor.Username)
}

// AvatarURL falls back to the default avatar for users without one.
func (s *DefaultUserService) AvatarURL(ctx context.Context, username string) (string, error) {
	if s.Avatars != nil {
		if url, ok := s.Avatars.Get(ctx, username); ok {
			return url, nil
		}
	}
	url, err := s.resolveAvatar(ctx, username)
	if err != nil {
		return "", err
	}
	if s.Avatars != nil {
		s.Avatars.Set(ctx, username, url)
	}
	return url, nil
}

func (s *DefaultUserService) resolveAvatar(ctx context.Context, username string) (string, error) {
	user, err := s.Repo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user.AvatarURL != "" {
		return user.AvatarURL, nil
	}
	if user.AvatarID != "" {
		if url, err := s.Storage.URL(user.AvatarID); err == nil {
			return url, nil
		}
	}
	if s.DefaultAvatarURL == "" {
		return "", utils.NotFound("user %s has no avatar", username)
	}
	return s.DefaultAvatarURL, nil
}

func (s *DefaultUserService) SetAvailable(ctx context.Context, actor models.Identity, available bool) error {
	if err := actor.Require(); err != nil {
		return err
	}
	return s.Repo.UpdateFields(ctx, actor.Username, bson.M{"available": available})
}

func (s *DefaultUserService) SetLocation(ctx context.Context, actor models.Identity, lat, lng float64) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return utils.InvalidInput("coordinates out of range")
	}
	return s.Repo.UpdateFields(ctx, actor.Username, bson.M{"location": models.NewGeoPoint(lat, lng)})
}

func (s *DefaultUserService) SetFCMToken(ctx context.Context, actor models.Identity, token string) error {
	if err := actor.Require(); err != nil {
		return err
	}
	return s.Repo.UpdateFields(ctx, actor.Username, bson.M{"fcmToken": strings.TrimSpace(token)})
}

// AddReviews stores a batch of reviews, each on the user it names.
func (s *DefaultUserService) AddReviews(ctx context.Context, actor models.Identity, reviews []models.Review) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if len(reviews) == 0 {
		return utils.InvalidInput("no reviews given")
	}
	for _, r := range reviews {
		if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Reviews) == "" {
			return utils.InvalidInput("each review needs a name and text")
		}
		if r.Name == actor.Username {
			return utils.InvalidInput("you cannot review yourself")
		}
	}
	for _, r := range reviews {
		if err := s.Repo.AddReview(ctx, r.Name, actor.Username+": "+strings.TrimSpace(r.Reviews)); err != nil {
			return err
		}
	}
	return nil
}

// Peers lists everyone else at the caller's university.
func (s *DefaultUserService) Peers(ctx context.Context, actor models.Identity) ([]models.User, error) {
	me, err := s.GetProfile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(me.University) == "" {
		return []models.User{}, nil
	}
	return s.Repo.ListByUniversity(ctx, me.University, []string{me.Username})
}

// SetViewBuddy remembers whose profile the caller opened last.
func (s *DefaultUserService) SetViewBuddy(ctx context.Context, actor models.Identity, username string) error {
	if err := actor.Require(); err != nil {
		return err
	}
	exists, err := s.Repo.Exists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return utils.NotFound("user %s not found", username)
	}
	return s.Repo.UpdateFields(ctx, actor.Username, bson.M{"viewBuddy": username})
}

func (s *DefaultUserService) GetViewBuddy(ctx context.Context, actor models.Identity) (*models.User, error) {
	me, err := s.GetProfile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if me.ViewBuddy == "" {
		return nil, utils.NotFound("no buddy selected")
	}
	return s.Repo.GetByUsername(ctx, me.ViewBuddy)
}
