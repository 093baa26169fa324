// Package memoryRepo holds in-memory repositories with the same error semantics as the
// Mongo ones. Tests use them in place of a database.
package memoryRepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"studybuddy/models"
	"studybuddy/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// Users implements userRepo.UserRepository.
type Users struct {
	mu    sync.Mutex
	users map[string]*models.User

	// FailBuddyWrite, when set, is consulted before every buddy list write.
	FailBuddyWrite func(username, buddy string, add bool) error
}

func NewUsers(users ...models.User) *Users {
	r := &Users{users: map[string]*models.User{}}
	for _, u := range users {
		u := u
		if u.Buddies == nil {
			u.Buddies = []string{}
		}
		r.users[u.Username] = &u
	}
	return r
}

func (r *Users) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return utils.Conflict("user %s already exists", user.Username)
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Buddies == nil {
		user.Buddies = []string{}
	}
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

func (r *Users) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, utils.NotFound("user %s not found", username)
	}
	cp := *u
	cp.Buddies = append([]string{}, u.Buddies...)
	return &cp, nil
}

func (r *Users) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	out := []models.User{}
	for _, name := range usernames {
		if u, err := r.GetByUsername(ctx, name); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *Users) Exists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

// UpdateFields understands the field names the services write.
func (r *Users) UpdateFields(_ context.Context, username string, fields bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return utils.NotFound("user %s not found", username)
	}
	for k, v := range fields {
		switch k {
		case "passwordHash":
			u.PasswordHash = v.(string)
		case "password":
			u.LegacyPassword = v.(string)
		case "university":
			u.University = v.(string)
		case "bio":
			u.Bio = v.(string)
		case "courses":
			u.Courses = v.([]string)
		case "avatarUrl":
			u.AvatarURL = v.(string)
		case "avatarId":
			u.AvatarID = v.(string)
		case "available":
			u.Available = v.(bool)
		case "location":
			u.Location = v.(*models.GeoPoint)
		case "viewBuddy":
			u.ViewBuddy = v.(string)
		case "fcmToken":
			u.FCMToken = v.(string)
		}
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (r *Users) AddBuddy(_ context.Context, username, buddy string) error {
	return r.buddyWrite(username, buddy, true)
}

func (r *Users) RemoveBuddy(_ context.Context, username, buddy string) error {
	return r.buddyWrite(username, buddy, false)
}

func (r *Users) buddyWrite(username, buddy string, add bool) error {
	if r.FailBuddyWrite != nil {
		if err := r.FailBuddyWrite(username, buddy, add); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return utils.NotFound("user %s not found", username)
	}
	kept := []string{}
	for _, b := range u.Buddies {
		if b != buddy {
			kept = append(kept, b)
		}
	}
	if add {
		kept = append(kept, buddy)
	}
	u.Buddies = kept
	return nil
}

func (r *Users) AddReview(_ context.Context, username, review string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return utils.NotFound("user %s not found", username)
	}
	u.Reviews = append(u.Reviews, review)
	return nil
}

func (r *Users) ListByUniversity(_ context.Context, university string, exclude []string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	skip := map[string]bool{}
	for _, e := range exclude {
		skip[e] = true
	}
	out := []models.User{}
	for _, u := range r.users {
		if strings.EqualFold(u.University, university) && !skip[u.Username] {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Matches implements matchRepo.MatchRepository.
type Matches struct {
	mu    sync.Mutex
	edges []models.Match
}

func NewMatches(edges ...models.Match) *Matches {
	return &Matches{edges: edges}
}

func (r *Matches) Create(_ context.Context, edge models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.edges {
		if e.UserSent == edge.UserSent && e.UserTo == edge.UserTo {
			return utils.Conflict("match request to %s already sent", edge.UserTo)
		}
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}
	r.edges = append(r.edges, edge)
	return nil
}

func (r *Matches) Exists(_ context.Context, sender, recipient string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.edges {
		if e.UserSent == sender && e.UserTo == recipient {
			return true, nil
		}
	}
	return false, nil
}

func (r *Matches) Delete(ctx context.Context, sender, recipient string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []models.Match
	for _, e := range r.edges {
		if e.UserSent != sender || e.UserTo != recipient {
			kept = append(kept, e)
		}
	}
	r.edges = kept
	return nil
}

func (r *Matches) DeleteBetween(_ context.Context, a, b string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []models.Match
	var removed int64
	for _, e := range r.edges {
		if (e.UserSent == a && e.UserTo == b) || (e.UserSent == b && e.UserTo == a) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.edges = kept
	return removed, nil
}

func (r *Matches) ListSentBy(_ context.Context, sender string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.edges {
		if e.UserSent == sender {
			out = append(out, e.UserTo)
		}
	}
	return out, nil
}

func (r *Matches) ListSentTo(_ context.Context, recipient string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.edges {
		if e.UserTo == recipient {
			out = append(out, e.UserSent)
		}
	}
	return out, nil
}

// Edges returns a copy of the stored edges.
func (r *Matches) Edges() []models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Match(nil), r.edges...)
}
