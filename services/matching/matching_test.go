package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	memoryRepo "studybuddy/database/repository/memory"
	"studybuddy/models"
	"studybuddy/utils"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(users ...models.User) (*DefaultMatchingService, *memoryRepo.Users, *memoryRepo.Matches) {
	userStore := memoryRepo.NewUsers(users...)
	matchStore := memoryRepo.NewMatches()
	svc := NewDefaultMatchingService(userStore, matchStore, nil, zap.NewNop())
	svc.Backoff = func() retry.Backoff {
		return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	}
	return svc, userStore, matchStore
}

func student(name, university string) models.User {
	return models.User{ID: "id-" + name, Username: name, University: university}
}

func who(name string) models.Identity {
	return models.Identity{UserID: "id-" + name, Username: name, SessionID: "sid-" + name}
}

func buddiesOf(t *testing.T, users *memoryRepo.Users, name string) []string {
	t.Helper()
	u, err := users.GetByUsername(context.Background(), name)
	require.NoError(t, err)
	return u.Buddies
}

func TestMutualMatchLinksBuddies(t *testing.T) {
	svc, users, _ := newService(student("alice", "MIT"), student("bob", "MIT"))
	ctx := context.Background()

	res, err := svc.Match(ctx, who("alice"), "bob")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Empty(t, buddiesOf(t, users, "alice"))
	assert.Empty(t, buddiesOf(t, users, "bob"))

	res, err = svc.Match(ctx, who("bob"), "alice")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "alice", res.Buddy)
	assert.Equal(t, []string{"bob"}, buddiesOf(t, users, "alice"))
	assert.Equal(t, []string{"alice"}, buddiesOf(t, users, "bob"))
}

func TestDuplicateMatchIsConflict(t *testing.T) {
	svc, _, matches := newService(student("alice", "MIT"), student("bob", "MIT"))
	ctx := context.Background()

	_, err := svc.Match(ctx, who("alice"), "bob")
	require.NoError(t, err)
	_, err = svc.Match(ctx, who("alice"), "bob")
	assert.True(t, utils.IsKind(err, utils.KindConflict), "got %v", err)
	assert.Len(t, matches.Edges(), 1)
}

func TestMatchRejectsBadTargets(t *testing.T) {
	svc, _, _ := newService(student("alice", "MIT"))
	ctx := context.Background()

	_, err := svc.Match(ctx, who("alice"), "alice")
	assert.True(t, utils.IsKind(err, utils.KindInvalidInput))

	_, err = svc.Match(ctx, who("alice"), "  ")
	assert.True(t, utils.IsKind(err, utils.KindInvalidInput))

	_, err = svc.Match(ctx, who("alice"), "ghost")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = svc.Match(ctx, models.Identity{}, "alice")
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))

	err = svc.Unmatch(ctx, models.Identity{}, "alice")
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))
}

func TestUnmatchRemovesBothSides(t *testing.T) {
	svc, users, matches := newService(student("alice", "MIT"), student("bob", "MIT"))
	ctx := context.Background()

	_, err := svc.Match(ctx, who("alice"), "bob")
	require.NoError(t, err)
	_, err = svc.Match(ctx, who("bob"), "alice")
	require.NoError(t, err)

	require.NoError(t, svc.Unmatch(ctx, who("bob"), "alice"))

	assert.Empty(t, matches.Edges())
	assert.Empty(t, buddiesOf(t, users, "alice"))
	assert.Empty(t, buddiesOf(t, users, "bob"))

	// Repeating it is harmless.
	require.NoError(t, svc.Unmatch(ctx, who("alice"), "bob"))
}

func TestUnmatchWithSingleEdge(t *testing.T) {
	svc, users, matches := newService(student("alice", "MIT"), student("bob", "MIT"))
	ctx := context.Background()

	_, err := svc.Match(ctx, who("alice"), "bob")
	require.NoError(t, err)

	// The recipient withdraws it.
	require.NoError(t, svc.Unmatch(ctx, who("bob"), "alice"))
	assert.Empty(t, matches.Edges())
	assert.Empty(t, buddiesOf(t, users, "alice"))
	assert.Empty(t, buddiesOf(t, users, "bob"))

	// Both can match again afterwards.
	_, err = svc.Match(ctx, who("alice"), "bob")
	require.NoError(t, err)
}

func TestFailedLinkIsCompensatedAndReported(t *testing.T) {
	svc, users, matches := newService(student("alice", "MIT"), student("bob", "MIT"))
	ctx := context.Background()

	_, err := svc.Match(ctx, who("alice"), "bob")
	require.NoError(t, err)

	attempts := 0
	users.FailBuddyWrite = func(username, _ string, add bool) error {
		if username == "alice" && add {
			attempts++
			return utils.Unavailable(errors.New("socket closed"), "storage unavailable")
		}
		return nil
	}

	_, err = svc.Match(ctx, who("bob"), "alice")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindDependencyUnavailable), "got %v", err)
	assert.Equal(t, 3, attempts, "one attempt plus two retries")

	assert.Empty(t, buddiesOf(t, users, "bob"), "the written side must be rolled back")
	assert.Empty(t, buddiesOf(t, users, "alice"))
	assert.Len(t, matches.Edges(), 1, "the failed request is withdrawn")

	users.FailBuddyWrite = nil
	res, err := svc.Match(ctx, who("bob"), "alice")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, []string{"bob"}, buddiesOf(t, users, "alice"))
	assert.Equal(t, []string{"alice"}, buddiesOf(t, users, "bob"))
}

func TestTransientBuddyWriteIsRetried(t *testing.T) {
	svc, users, _ := newService(student("alice", "MIT"), student("bob", "MIT"))
	ctx := context.Background()

	_, err := svc.Match(ctx, who("alice"), "bob")
	require.NoError(t, err)

	failures := 2
	users.FailBuddyWrite = func(username, _ string, _ bool) error {
		if username == "alice" && failures > 0 {
			failures--
			return errors.New("i/o timeout")
		}
		return nil
	}

	res, err := svc.Match(ctx, who("bob"), "alice")
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, []string{"bob"}, buddiesOf(t, users, "alice"))
}

func TestFailedUnlinkRestoresFirstSide(t *testing.T) {
	svc, users, matches := newService(student("alice", "MIT"), student("bob", "MIT"))
	ctx := context.Background()

	_, err := svc.Match(ctx, who("alice"), "bob")
	require.NoError(t, err)
	_, err = svc.Match(ctx, who("bob"), "alice")
	require.NoError(t, err)

	users.FailBuddyWrite = func(username, _ string, add bool) error {
		if username == "bob" && !add {
			return errors.New("write conflict")
		}
		return nil
	}

	err = svc.Unmatch(ctx, who("alice"), "bob")
	assert.True(t, utils.IsKind(err, utils.KindDependencyUnavailable))
	assert.Equal(t, []string{"bob"}, buddiesOf(t, users, "alice"))
	assert.Equal(t, []string{"alice"}, buddiesOf(t, users, "bob"))
	assert.Len(t, matches.Edges(), 2, "edges stay until the buddy lists are cleared")
}

func TestCandidatesAndRequests(t *testing.T) {
	svc, _, _ := newService(
		student("me", "IIT Jodhpur"),
		student("buddy", "IIT Jodhpur"),
		student("asked", "iit jodhpur"),
		student("asker", "IIT JODHPUR"),
		student("fresh", "IIT Jodhpur"),
		student("elsewhere", "MIT"),
	)
	ctx := context.Background()

	_, err := svc.Match(ctx, who("me"), "buddy")
	require.NoError(t, err)
	_, err = svc.Match(ctx, who("buddy"), "me")
	require.NoError(t, err)
	_, err = svc.Match(ctx, who("me"), "asked")
	require.NoError(t, err)
	_, err = svc.Match(ctx, who("asker"), "me")
	require.NoError(t, err)

	candidates, err := svc.Candidates(ctx, who("me"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"asker", "fresh"}, usernames(candidates))

	requests, err := svc.IncomingRequests(ctx, who("me"))
	require.NoError(t, err)
	assert.Equal(t, []string{"asker"}, usernames(requests))

	buddies, err := svc.Buddies(ctx, who("me"))
	require.NoError(t, err)
	assert.Equal(t, []string{"buddy"}, usernames(buddies))
}

func TestCandidatesWithoutUniversity(t *testing.T) {
	svc, _, _ := newService(student("me", ""), student("other", ""))

	candidates, err := svc.Candidates(context.Background(), who("me"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func usernames(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}
