package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	memoryRepo "studybuddy/database/repository/memory"
	"studybuddy/models"
	"studybuddy/services/chat"
	"studybuddy/utils"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type socketFixture struct {
	chats *chat.DefaultChatService
	repo  *memoryRepo.Chats
}

func newSocketFixture() socketFixture {
	repo := memoryRepo.NewChats(models.Chatroom{ID: "r1", Title: "Calculus", Users: []string{"alice", "bob"}})
	users := memoryRepo.NewUsers(
		models.User{ID: "1", Username: "alice"},
		models.User{ID: "2", Username: "bob"},
		models.User{ID: "3", Username: "carol"},
	)
	return socketFixture{
		chats: &chat.DefaultChatService{Repo: repo, Users: users, Logger: zap.NewNop()},
		repo:  repo,
	}
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestChatMessageFanOut(t *testing.T) {
	f := newSocketFixture()
	s := NewChatSocket(f.chats, zap.NewNop())
	alice, bob := testClient(s.Hub, "alice", 8), testClient(s.Hub, "bob", 8)
	s.Hub.Join(alice, "r1")
	s.Hub.Join(bob, "r1")

	long := strings.Repeat("x", 60)
	err := s.Router()["message"](context.Background(), alice, raw(t, map[string]string{"chatroom": "r1", "body": long, "fromUser": "mallory"}))
	require.NoError(t, err)

	resp := nextEvent(t, bob)
	require.Equal(t, "response", resp.Name)
	var msg models.Message
	require.NoError(t, json.Unmarshal(resp.Data, &msg))
	assert.Equal(t, "alice", msg.FromUser)

	n := nextEvent(t, bob)
	require.Equal(t, "notification", n.Name)
	var body notification
	require.NoError(t, json.Unmarshal(n.Data, &body))
	assert.Equal(t, "bob", body.TargetUser)
	assert.Equal(t, strings.Repeat("x", 50)+"...", body.Body)

	assert.Equal(t, "group-notification", nextEvent(t, bob).Name)
	assertQuiet(t, alice)
}

func TestChatMessagePersistFailure(t *testing.T) {
	f := newSocketFixture()
	f.repo.FailAppend = utils.Unavailable(errors.New("down"), "storage unavailable")
	s := NewChatSocket(f.chats, zap.NewNop())
	alice, bob := testClient(s.Hub, "alice", 8), testClient(s.Hub, "bob", 8)
	s.Hub.Join(alice, "r1")
	s.Hub.Join(bob, "r1")

	alice.dispatch(context.Background(), s.Router(), raw(t, Event{Name: "message", Data: raw(t, messageIn{Chatroom: "r1", Body: "hi"})}), zap.NewNop())

	ev := nextEvent(t, alice)
	assert.Equal(t, "error", ev.Name)
	assert.JSONEq(t, `{"message":"storage unavailable","code":"dependency_unavailable"}`, string(ev.Data))
	assertQuiet(t, bob)
}

func TestChatLeaveAndAddUsers(t *testing.T) {
	f := newSocketFixture()
	s := NewChatSocket(f.chats, zap.NewNop())
	alice, bob, carol := testClient(s.Hub, "alice", 8), testClient(s.Hub, "bob", 8), testClient(s.Hub, "carol", 8)
	s.Hub.Join(alice, "r1")
	s.Hub.Join(bob, "r1")
	ctx := context.Background()

	require.NoError(t, s.Router()["add-users"](ctx, alice, raw(t, addUsersIn{Chatroom: "r1", Users: []string{"carol", "bob"}})))
	assert.Equal(t, "update-users", nextEvent(t, bob).Name)
	added := nextEvent(t, bob)
	assert.Equal(t, "users-added", added.Name)
	assert.JSONEq(t, `{"addedUsers":["carol"],"message":"carol joined the chat"}`, string(added.Data))
	assert.Equal(t, "notification", nextEvent(t, carol).Name)

	require.NoError(t, s.Router()["leave"](ctx, bob, raw(t, roomRef{Chatroom: "r1"})))
	assert.Equal(t, "update-users", nextEvent(t, alice).Name)
	assert.Equal(t, "user-left", nextEvent(t, alice).Name)
	assert.Equal(t, 1, s.Hub.RoomSize("r1"))

	room, err := f.repo.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, room.Users)
}

func TestJoinChatRequiresMembership(t *testing.T) {
	f := newSocketFixture()
	s := NewChatSocket(f.chats, zap.NewNop())
	carol := testClient(s.Hub, "carol", 4)

	err := s.Router()["join-chat"](context.Background(), carol, raw(t, chatRef{ChatID: "r1"}))
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
	assert.Zero(t, s.Hub.RoomSize("r1"))

	bob := testClient(s.Hub, "bob", 4)
	require.NoError(t, s.Router()["join-chat"](context.Background(), bob, raw(t, chatRef{ChatID: "r1"})))
	require.NoError(t, s.Router()["leave-chat"](context.Background(), bob, raw(t, chatRef{ChatID: "r1"})))
	assert.Zero(t, s.Hub.RoomSize("r1"))
}

func TestMeetupMarker(t *testing.T) {
	f := newSocketFixture()
	s := NewMeetupSocket(f.chats, zap.NewNop())
	alice, bob := testClient(s.Hub, "alice", 4), testClient(s.Hub, "bob", 4)
	ctx := context.Background()

	require.NoError(t, s.Router()["join room"](ctx, alice, raw(t, "r1")))
	require.NoError(t, s.Router()["join room"](ctx, bob, raw(t, map[string]string{"room": "r1"})))

	require.NoError(t, s.Router()["add-marker"](ctx, alice, raw(t, map[string]any{
		"room":   "r1",
		"marker": map[string]float64{"lat": 26.47, "lng": 73.11},
		"dic":    map[string]string{"label": "library"},
	})))

	ev := nextEvent(t, bob)
	assert.Equal(t, "newmarker", ev.Name)
	assert.JSONEq(t, `{"room":"r1","marker":{"lat":26.47,"lng":73.11},"dic":{"label":"library"}}`, string(ev.Data))
	assertQuiet(t, alice)

	room, err := f.repo.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []float64{73.11, 26.47}, room.Meetspot.Coordinates)
}

func TestServeOverWebsocket(t *testing.T) {
	f := newSocketFixture()
	s := NewChatSocket(f.chats, zap.NewNop())
	upgrader := NewUpgrader(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		user := r.URL.Query().Get("user")
		s.Hub.Serve(r.Context(), conn, models.Identity{UserID: user, Username: user, SessionID: "s"}, []string{"r1"}, s.Router())
	}))
	defer srv.Close()

	dial := func(user string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		return conn
	}
	alice, bob := dial("alice"), dial("bob")
	defer alice.Close()
	defer bob.Close()

	require.Eventually(t, func() bool { return s.Hub.RoomSize("r1") == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, alice.WriteJSON(Event{Name: "message", Data: raw(t, messageIn{Chatroom: "r1", Body: "hello"})}))

	_ = bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, bob.ReadJSON(&ev))
	assert.Equal(t, "response", ev.Name)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	_ = alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, alice.ReadJSON(&ev))
	assert.Equal(t, "error", ev.Name)
}
