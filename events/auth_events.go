package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserRegisteredEvent is emitted when a new account is created.
type UserRegisteredEvent struct {
	UserID       uint      `json:"user_id"`
	UserName     string    `json:"user_name"`
	RegisteredAt time.Time `json:"registered_at"`
}

// UserRegisteredV1 is the typed event definition for registration.
// Subject: events.auth.v1.user-registered
var UserRegisteredV1 = helper.EventDefinition[UserRegisteredEvent](
	"auth", "UserRegistered", "v1",
)

// UserLoggedInEvent is emitted after a successful login.
type UserLoggedInEvent struct {
	UserID     uint      `json:"user_id"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// UserLoggedInV1 is the typed event definition for login.
// Subject: events.auth.v1.user-logged-in
var UserLoggedInV1 = helper.EventDefinition[UserLoggedInEvent](
	"auth", "UserLoggedIn", "v1",
)

// UserLoggedOutEvent is emitted after a refresh token has been revoked.
type UserLoggedOutEvent struct {
	UserID      uint      `json:"user_id"`
	LoggedOutAt time.Time `json:"logged_out_at"`
}

// UserLoggedOutV1 is the typed event definition for logout.
// Subject: events.auth.v1.user-logged-out
var UserLoggedOutV1 = helper.EventDefinition[UserLoggedOutEvent](
	"auth", "UserLoggedOut", "v1",
)

// SessionRefreshedEvent is emitted when a refresh token is rotated.
type SessionRefreshedEvent struct {
	UserID      uint      `json:"user_id"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// SessionRefreshedV1 is the typed event definition for refresh rotation.
// Subject: events.auth.v1.session-refreshed
var SessionRefreshedV1 = helper.EventDefinition[SessionRefreshedEvent](
	"auth", "SessionRefreshed", "v1",
)
