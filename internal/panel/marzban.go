package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vpnshop/internal/pkg/httpclient"
)

// ErrUserExists is returned when account creation hits a username that
// already exists on the panel.
var ErrUserExists = errors.New("username already exists on panel")

// MarzbanClient implements Client for Marzban panels. The configured
// secret is the admin password; it is exchanged for a short-lived bearer
// token before every batch of calls.
type MarzbanClient struct {
	baseURL   string
	password  string
	token     string
	tokenTime time.Time
	client    *httpclient.Client
}

// NewMarzbanClient creates a new Marzban panel client.
func NewMarzbanClient(baseURL, password string) *MarzbanClient {
	return &MarzbanClient{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		password: password,
		client:   httpclient.New().WithTimeout(15 * time.Second).WithInsecureSkipVerify(),
	}
}

func (m *MarzbanClient) Type() string {
	return "marzban"
}

// authenticate exchanges the admin password for a bearer token.
func (m *MarzbanClient) authenticate(ctx context.Context) error {
	resp, err := m.client.PostForm(m.baseURL+"/api/admin/token", map[string]string{
		"username": "admin",
		"password": m.password,
	})
	if err != nil {
		return fmt.Errorf("marzban auth failed: %w", err)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("marzban auth parse error: %w", err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("marzban auth: no access_token in response")
	}

	m.token = result.AccessToken
	m.tokenTime = time.Now()
	m.client = m.client.WithBearerToken(result.AccessToken)
	return nil
}

func (m *MarzbanClient) ensureAuth(ctx context.Context) error {
	if m.token == "" || time.Since(m.tokenTime) > 50*time.Minute {
		return m.authenticate(ctx)
	}
	return nil
}

func (m *MarzbanClient) CreateUser(ctx context.Context, req CreateUserRequest) (*PanelUser, error) {
	if err := m.ensureAuth(ctx); err != nil {
		return nil, err
	}

	// days == 0 leaves expire at 0, which Marzban treats as unlimited.
	var expire int64
	if req.DurationDays > 0 {
		expire = time.Now().Unix() + int64(req.DurationDays)*86400
	}

	body := map[string]interface{}{
		"username":                  req.Username,
		"status":                    "active",
		"expire":                    expire,
		"data_limit":                int64(req.DataLimitGB) << 30,
		"data_limit_reset_strategy": "no_reset",
		"proxies":                   map[string]interface{}{"vless": map[string]interface{}{}, "vmess": map[string]interface{}{}},
		"inbounds":                  map[string]interface{}{},
	}
	if req.UserLimit > 0 {
		body["on_hold_user_limit"] = req.UserLimit
	}

	resp, err := m.client.Post(m.baseURL+"/api/user", body)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && se.Code == http.StatusConflict {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("marzban create user failed: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("marzban parse create response: %w", err)
	}
	if detail := getString(raw, "detail"); detail != "" {
		return nil, fmt.Errorf("marzban create user error: %s", detail)
	}

	user := parseMarzbanUser(raw)
	user.SubLink = m.absoluteSubLink(user.SubLink)
	return user, nil
}

func (m *MarzbanClient) GetUser(ctx context.Context, username string) (*PanelUser, error) {
	if err := m.ensureAuth(ctx); err != nil {
		return nil, err
	}

	resp, err := m.client.Get(m.baseURL + "/api/user/" + username)
	if err != nil {
		return nil, fmt.Errorf("marzban get user failed: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("marzban parse error: %w", err)
	}

	user := parseMarzbanUser(raw)
	user.SubLink = m.absoluteSubLink(user.SubLink)
	return user, nil
}

func (m *MarzbanClient) DeleteUser(ctx context.Context, username string) error {
	if err := m.ensureAuth(ctx); err != nil {
		return err
	}
	_, err := m.client.Delete(m.baseURL + "/api/user/" + username)
	return err
}

// ModifyUser is not implemented for Marzban yet; renewal/recharge goes
// through support.
func (m *MarzbanClient) ModifyUser(ctx context.Context, username string, req ModifyUserRequest) error {
	return ErrNotSupported
}

// absoluteSubLink prefixes the panel base URL when the vendor returned a
// relative subscription path.
func (m *MarzbanClient) absoluteSubLink(sub string) string {
	if sub == "" || strings.HasPrefix(sub, "http") {
		return sub
	}
	return m.baseURL + sub
}

func parseMarzbanUser(raw map[string]interface{}) *PanelUser {
	user := &PanelUser{
		Username: getString(raw, "username"),
		SubLink:  getString(raw, "subscription_url"),
	}
	if v, ok := raw["used_traffic"].(float64); ok {
		user.UsedTraffic = int64(v)
	}
	if v, ok := raw["data_limit"].(float64); ok {
		user.DataLimit = int64(v)
	}
	if v, ok := raw["expire"].(float64); ok {
		user.ExpireTime = int64(v)
	}
	if links, ok := raw["links"].([]interface{}); ok {
		for _, l := range links {
			if s, ok := l.(string); ok {
				user.Links = append(user.Links, s)
			}
		}
	}
	return user
}

// getString safely reads a string field from a decoded JSON object.
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
