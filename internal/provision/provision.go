// Package provision orchestrates what happens when an admin approves an
// order: resolve the plan's panel, create the account on the remote
// panel, persist the local account record and build the delivery message
// for the buyer. Every step is a possible failure point that
// short-circuits; the caller marks the order failed and notifies both
// parties.
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vpnshop/internal/catalog"
	"vpnshop/internal/models"
	"vpnshop/internal/panel"
	"vpnshop/internal/pkg/utils"
)

var (
	// ErrNoPanelLinked means the plan has no panel id configured.
	ErrNoPanelLinked = errors.New("plan has no linked panel")

	// ErrPanelNotFound means the plan's panel id resolves to nothing.
	ErrPanelNotFound = errors.New("panel not found")

	// ErrNoConnectionInfo means the panel created the account but
	// returned neither a subscription URL nor connection links. An
	// account nobody can connect to is not a usable outcome.
	ErrNoConnectionInfo = errors.New("panel returned no usable connection info")
)

// PanelStore resolves configured panels.
type PanelStore interface {
	FindByID(id uint) (*models.Panel, error)
}

// AccountStore persists provisioned accounts.
type AccountStore interface {
	Create(account *models.Account) error
}

// ClientFactory builds a panel client for a configured panel.
type ClientFactory func(p *models.Panel) (panel.Client, error)

// Delivery is what the buyer receives after successful provisioning.
type Delivery struct {
	Account *models.Account
	SubLink string
	Links   []string
}

// Provisioner runs the order-approval pipeline.
type Provisioner struct {
	panels   PanelStore
	accounts AccountStore
	factory  ClientFactory
	logger   *zap.Logger
}

// New creates a Provisioner. factory defaults to panel.New.
func New(panels PanelStore, accounts AccountStore, factory ClientFactory, logger *zap.Logger) *Provisioner {
	if factory == nil {
		factory = panel.New
	}
	return &Provisioner{panels: panels, accounts: accounts, factory: factory, logger: logger}
}

// Provision creates a panel account for the buyer according to the plan
// and records it locally. It does not touch the order; the calling
// decision handler owns the status transition.
func (p *Provisioner) Provision(ctx context.Context, buyer *models.User, plan catalog.Plan) (*Delivery, error) {
	if plan.PanelID == 0 {
		return nil, ErrNoPanelLinked
	}

	pan, err := p.panels.FindByID(plan.PanelID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %d", ErrPanelNotFound, plan.PanelID)
	}

	client, err := p.factory(pan)
	if err != nil {
		return nil, fmt.Errorf("resolve panel client: %w", err)
	}

	created, err := p.createWithRetry(ctx, client, buyer, plan)
	if err != nil {
		return nil, fmt.Errorf("create account on %s: %w", pan.Name, err)
	}
	if created == nil {
		return nil, fmt.Errorf("create account on %s: panel returned no result", pan.Name)
	}

	// Delivery must carry something the buyer can connect with, even
	// when creation itself reported success.
	if created.SubLink == "" && len(created.Links) == 0 {
		return nil, ErrNoConnectionInfo
	}

	account := &models.Account{
		UserID:        buyer.ID,
		PanelID:       pan.ID,
		PanelUsername: created.Username,
		FriendlyName:  fmt.Sprintf("%dGB", plan.DataLimitGB),
	}
	if plan.DurationDays > 0 {
		t := time.Now().Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
		account.ExpiresAt = &t
	}
	if err := p.accounts.Create(account); err != nil {
		return nil, fmt.Errorf("persist account: %w", err)
	}

	p.logger.Info("account provisioned",
		zap.Int64("telegram_id", buyer.TelegramID),
		zap.String("panel", pan.Name),
		zap.String("panel_username", created.Username))

	return &Delivery{Account: account, SubLink: created.SubLink, Links: created.Links}, nil
}

// createWithRetry calls CreateUser with a synthesized username and, on a
// vendor-side name conflict, retries exactly once with a fresh suffix.
func (p *Provisioner) createWithRetry(ctx context.Context, client panel.Client, buyer *models.User, plan catalog.Plan) (*panel.PanelUser, error) {
	req := panel.CreateUserRequest{
		Username:     utils.PanelUsername(buyer.TelegramID),
		DataLimitGB:  plan.DataLimitGB,
		DurationDays: plan.DurationDays,
		UserLimit:    plan.UserLimit,
	}

	created, err := client.CreateUser(ctx, req)
	if errors.Is(err, panel.ErrUserExists) {
		p.logger.Warn("panel username collision, retrying with fresh suffix",
			zap.String("username", req.Username))
		req.Username = utils.PanelUsername(buyer.TelegramID)
		created, err = client.CreateUser(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	if created != nil && created.Username == "" {
		// Some vendors echo nothing back; keep the requested name.
		created.Username = req.Username
	}
	return created, err
}
