package provision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"vpnshop/internal/catalog"
	"vpnshop/internal/models"
	"vpnshop/internal/panel"
)

type fakePanelStore struct {
	panels map[uint]*models.Panel
}

func (f *fakePanelStore) FindByID(id uint) (*models.Panel, error) {
	if p, ok := f.panels[id]; ok {
		return p, nil
	}
	return nil, errors.New("record not found")
}

type fakeAccountStore struct {
	created []*models.Account
	err     error
}

func (f *fakeAccountStore) Create(a *models.Account) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, a)
	return nil
}

type fakeClient struct {
	createCalls []panel.CreateUserRequest
	results     []*panel.PanelUser
	errs        []error
}

func (f *fakeClient) CreateUser(_ context.Context, req panel.CreateUserRequest) (*panel.PanelUser, error) {
	i := len(f.createCalls)
	f.createCalls = append(f.createCalls, req)
	var res *panel.PanelUser
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func (f *fakeClient) GetUser(context.Context, string) (*panel.PanelUser, error) { return nil, nil }
func (f *fakeClient) DeleteUser(context.Context, string) error                  { return nil }
func (f *fakeClient) ModifyUser(context.Context, string, panel.ModifyUserRequest) error {
	return panel.ErrNotSupported
}
func (f *fakeClient) Type() string { return "fake" }

func newTestProvisioner(panels *fakePanelStore, accounts *fakeAccountStore, client panel.Client) *Provisioner {
	factory := func(*models.Panel) (panel.Client, error) { return client, nil }
	return New(panels, accounts, factory, zap.NewNop())
}

var testBuyer = &models.User{ID: 5, TelegramID: 123456}

func testPlan() catalog.Plan {
	return catalog.Plan{Name: "10GB/30d", Price: 250, DataLimitGB: 10, DurationDays: 30, PanelID: 1}
}

func TestProvisionSuccess(t *testing.T) {
	panels := &fakePanelStore{panels: map[uint]*models.Panel{
		1: {ID: 1, Name: "Germany", Type: "marzban"},
	}}
	accounts := &fakeAccountStore{}
	client := &fakeClient{results: []*panel.PanelUser{
		{Username: "user_123456_ab12", SubLink: "https://sub/x", Links: []string{"vless://a"}},
	}}

	d, err := newTestProvisioner(panels, accounts, client).
		Provision(context.Background(), testBuyer, testPlan())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if len(accounts.created) != 1 {
		t.Fatalf("created %d accounts, want exactly 1", len(accounts.created))
	}
	acc := accounts.created[0]
	if acc.UserID != 5 || acc.PanelID != 1 {
		t.Errorf("account links = user %d panel %d", acc.UserID, acc.PanelID)
	}
	// The panel-reported username is persisted, not a re-synthesized one.
	if acc.PanelUsername != "user_123456_ab12" {
		t.Errorf("PanelUsername = %q", acc.PanelUsername)
	}
	if acc.ExpiresAt == nil {
		t.Error("ExpiresAt not set for a 30-day plan")
	}
	if d.SubLink != "https://sub/x" || len(d.Links) != 1 {
		t.Errorf("delivery = %+v", d)
	}

	if !strings.HasPrefix(client.createCalls[0].Username, "user_123456_") {
		t.Errorf("synthesized username = %q", client.createCalls[0].Username)
	}
}

func TestProvisionNoPanelLinked(t *testing.T) {
	accounts := &fakeAccountStore{}
	p := newTestProvisioner(&fakePanelStore{}, accounts, &fakeClient{})

	plan := testPlan()
	plan.PanelID = 0
	_, err := p.Provision(context.Background(), testBuyer, plan)
	if !errors.Is(err, ErrNoPanelLinked) {
		t.Errorf("err = %v, want ErrNoPanelLinked", err)
	}
	if len(accounts.created) != 0 {
		t.Error("no account may be created on failure")
	}
}

func TestProvisionPanelMissing(t *testing.T) {
	accounts := &fakeAccountStore{}
	p := newTestProvisioner(&fakePanelStore{panels: map[uint]*models.Panel{}}, accounts, &fakeClient{})

	_, err := p.Provision(context.Background(), testBuyer, testPlan())
	if !errors.Is(err, ErrPanelNotFound) {
		t.Errorf("err = %v, want ErrPanelNotFound", err)
	}
	if len(accounts.created) != 0 {
		t.Error("no account may be created on failure")
	}
}

func TestProvisionUnknownPanelType(t *testing.T) {
	panels := &fakePanelStore{panels: map[uint]*models.Panel{
		1: {ID: 1, Name: "Old", Type: "pasargad"},
	}}
	accounts := &fakeAccountStore{}
	// Real factory: unknown vendor type fails closed.
	p := New(panels, accounts, nil, zap.NewNop())

	if _, err := p.Provision(context.Background(), testBuyer, testPlan()); err == nil {
		t.Error("expected failure for unknown panel type")
	}
	if len(accounts.created) != 0 {
		t.Error("no account may be created on failure")
	}
}

func TestProvisionCreateFailure(t *testing.T) {
	panels := &fakePanelStore{panels: map[uint]*models.Panel{1: {ID: 1, Type: "marzban"}}}
	accounts := &fakeAccountStore{}
	client := &fakeClient{errs: []error{errors.New("timeout")}}

	_, err := newTestProvisioner(panels, accounts, client).
		Provision(context.Background(), testBuyer, testPlan())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(accounts.created) != 0 {
		t.Error("no account may be created on failure")
	}
}

func TestProvisionNoConnectionInfo(t *testing.T) {
	panels := &fakePanelStore{panels: map[uint]*models.Panel{1: {ID: 1, Type: "marzban"}}}
	accounts := &fakeAccountStore{}
	// Creation "succeeded" but returned nothing the buyer can use.
	client := &fakeClient{results: []*panel.PanelUser{{Username: "u"}}}

	_, err := newTestProvisioner(panels, accounts, client).
		Provision(context.Background(), testBuyer, testPlan())
	if !errors.Is(err, ErrNoConnectionInfo) {
		t.Errorf("err = %v, want ErrNoConnectionInfo", err)
	}
	if len(accounts.created) != 0 {
		t.Error("no account may be created without connection info")
	}
}

func TestProvisionRetriesOnceOnCollision(t *testing.T) {
	panels := &fakePanelStore{panels: map[uint]*models.Panel{1: {ID: 1, Type: "marzban"}}}
	accounts := &fakeAccountStore{}
	client := &fakeClient{
		errs:    []error{panel.ErrUserExists, nil},
		results: []*panel.PanelUser{nil, {Username: "user_123456_ff00", SubLink: "https://sub"}},
	}

	d, err := newTestProvisioner(panels, accounts, client).
		Provision(context.Background(), testBuyer, testPlan())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if len(client.createCalls) != 2 {
		t.Fatalf("create calls = %d, want 2", len(client.createCalls))
	}
	if client.createCalls[0].Username == client.createCalls[1].Username {
		t.Error("retry must use a fresh suffix")
	}
	if d.Account.PanelUsername != "user_123456_ff00" {
		t.Errorf("PanelUsername = %q", d.Account.PanelUsername)
	}
}

func TestProvisionSecondCollisionIsTerminal(t *testing.T) {
	panels := &fakePanelStore{panels: map[uint]*models.Panel{1: {ID: 1, Type: "marzban"}}}
	accounts := &fakeAccountStore{}
	client := &fakeClient{errs: []error{panel.ErrUserExists, panel.ErrUserExists}}

	_, err := newTestProvisioner(panels, accounts, client).
		Provision(context.Background(), testBuyer, testPlan())
	if err == nil {
		t.Fatal("expected terminal failure after second collision")
	}
	if len(client.createCalls) != 2 {
		t.Errorf("create calls = %d, want exactly 2 (one retry)", len(client.createCalls))
	}
}
