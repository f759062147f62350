package panel

import (
	"context"
	"errors"
)

// ErrNotSupported is returned by operations a panel vendor does not
// implement. Renewal/recharge is an acknowledged gap for both vendors.
var ErrNotSupported = errors.New("operation not supported by this panel type")

// PanelUser is the normalized account shape returned by every vendor.
type PanelUser struct {
	Username    string   `json:"username"`
	UsedTraffic int64    `json:"used_traffic"`
	DataLimit   int64    `json:"data_limit"`
	ExpireTime  int64    `json:"expire_time"` // unix seconds, 0 = unlimited
	SubLink     string   `json:"sub_link"`
	Links       []string `json:"links"`
}

// CreateUserRequest contains params for creating a user on a panel.
type CreateUserRequest struct {
	Username     string
	DataLimitGB  int
	DurationDays int // 0 = unlimited
	UserLimit    int // concurrent users, 0 = unlimited
}

// ModifyUserRequest contains params for modifying a user on a panel.
type ModifyUserRequest struct {
	DataLimitGB  int
	DurationDays int
}

// Client is the uniform interface over VPN panel vendors. Transport
// errors, non-2xx responses and malformed vendor payloads all surface
// as an error; callers treat any error uniformly regardless of cause.
type Client interface {
	// CreateUser creates a new account on the panel.
	CreateUser(ctx context.Context, req CreateUserRequest) (*PanelUser, error)

	// GetUser fetches an account by username.
	GetUser(ctx context.Context, username string) (*PanelUser, error)

	// DeleteUser removes an account from the panel.
	DeleteUser(ctx context.Context, username string) error

	// ModifyUser applies changes to an existing account.
	ModifyUser(ctx context.Context, username string, req ModifyUserRequest) error

	// Type returns the panel type identifier.
	Type() string
}
