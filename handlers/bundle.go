// File: studybuddy/handlers/bundle.go
package handlers

import (
	"studybuddy/middleware"
)

// HandlerBundle groups every endpoint handler the router mounts.
type HandlerBundle struct {
	// Sessions resolves tokens for the auth middleware.
	Sessions middleware.SessionResolver

	Users      *UserHandler
	Matches    *MatchHandler
	Scheduling *SchedulingHandler
	Chats      *ChatHandler
	Sockets    *SocketHandler
	Health     *HealthHandler
}
