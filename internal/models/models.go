package models

import "time"

// Order statuses. An order moves from pending to exactly one of the
// terminal statuses and is never deleted.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderRejected  = "rejected"
	OrderFailed    = "failed"
)

// Supported panel vendor types.
const (
	PanelMarzban = "marzban"
	PanelSanaei  = "sanaei"
)

// User is a Telegram user interacting with the bot.
type User struct {
	ID         uint   `gorm:"primaryKey"`
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	FirstName  string `gorm:"size:300;not null"`
	Username   string `gorm:"size:300"`
	Step       string `gorm:"size:100;default:''"` // current conversation state
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Accounts []Account `gorm:"constraint:OnDelete:CASCADE"`
	Orders   []Order   `gorm:"constraint:OnDelete:CASCADE"`
}

// Panel is a configured VPN management endpoint.
type Panel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:200;uniqueIndex;not null"` // e.g. "Germany Server"
	Type      string `gorm:"size:50;not null"`              // marzban, sanaei
	APIURL    string `gorm:"size:500;not null"`
	APIToken  string `gorm:"size:500;not null"` // password or static token
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time

	Accounts []Account
}

// Account is one provisioned VPN identity. Created exactly once per
// successful provisioning; only FriendlyName is mutable afterwards.
type Account struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        uint   `gorm:"index;not null"`
	PanelID       uint   `gorm:"index;not null"`
	PanelUsername string `gorm:"size:200;index;not null"` // username as it exists on the panel
	FriendlyName  string `gorm:"size:200"`
	CreatedAt     time.Time
	ExpiresAt     *time.Time

	User  User
	Panel Panel
}

// Order is one purchase attempt, keyed by a unique tracking code.
// AdminMessageIDs is serialized by the repository; handlers only ever
// see the map form.
type Order struct {
	ID              uint   `gorm:"primaryKey"`
	TrackingCode    string `gorm:"size:20;uniqueIndex;not null"`
	UserID          uint   `gorm:"index;not null"`
	PlanID          string `gorm:"size:100;not null"` // key into the plans catalog
	Status          string `gorm:"size:20;default:pending"`
	AdminMessageIDs string `gorm:"type:text"` // JSON map admin chat id -> message id
	ProcessedBy     string `gorm:"size:300"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	User User
}

// IsResolved reports whether the order already left the pending state.
func (o *Order) IsResolved() bool {
	return o.Status != OrderPending
}
