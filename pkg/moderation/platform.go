package moderation

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Platform lookups when the user, member or ban
// does not exist.
var ErrNotFound = errors.New("not found")

// User is the slice of a platform account the orchestrator needs.
type User struct {
	ID    string
	Tag   string
	IsBot bool
}

// Platform is the chat-platform API surface the orchestrator calls into.
// Every method must respect the passed context; calls are bounded by a
// timeout per invocation.
type Platform interface {
	BanMember(ctx context.Context, guildID, userID, reason string) error
	UnbanMember(ctx context.Context, guildID, userID, reason string) error
	// TimeoutMember applies a communication timeout until the given time.
	// A nil until clears an existing timeout.
	TimeoutMember(ctx context.Context, guildID, userID string, until *time.Time, reason string) error
	// FetchMember resolves a current guild member, ErrNotFound when absent.
	FetchMember(ctx context.Context, guildID, userID string) (*User, error)
	// FetchBan resolves an active guild ban, ErrNotFound when not banned.
	FetchBan(ctx context.Context, guildID, userID string) (*User, error)
	// FetchUser resolves an account regardless of guild membership.
	FetchUser(ctx context.Context, userID string) (*User, error)
	// SendDirectMessage fails when the recipient has DMs closed; callers
	// treat that as non-fatal.
	SendDirectMessage(ctx context.Context, userID, text string) error
}
