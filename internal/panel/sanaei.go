package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vpnshop/internal/pkg/httpclient"
)

// SanaeiClient implements Client for Sanaei (3x-ui style) panels. The
// API token is embedded in the URL path; every operation is a GET with
// positional path parameters.
type SanaeiClient struct {
	baseURL string
	token   string
	client  *httpclient.Client
}

// NewSanaeiClient creates a new Sanaei panel client.
func NewSanaeiClient(baseURL, token string) *SanaeiClient {
	return &SanaeiClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   token,
		client:  httpclient.New().WithTimeout(15 * time.Second).WithInsecureSkipVerify(),
	}
}

func (s *SanaeiClient) Type() string {
	return "sanaei"
}

// sanaeiResponse is the {ok, result} envelope every endpoint returns.
type sanaeiResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		Name    string `json:"name"`
		Usage   int64  `json:"usage"`
		Traffic int64  `json:"traffic"`
		Expire  int64  `json:"expire"`
		Sub     string `json:"sub"`
		Vless   string `json:"vless"`
	} `json:"result"`
}

func (s *SanaeiClient) call(endpoint string) (*sanaeiResponse, error) {
	url := fmt.Sprintf("%s/%s/%s", s.baseURL, s.token, endpoint)
	raw, err := s.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("sanaei request failed: %w", err)
	}
	var resp sanaeiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("sanaei parse error: %w", err)
	}
	return &resp, nil
}

// toPanelUser remaps the vendor result into the normalized shape:
// usage→UsedTraffic, traffic→DataLimit, expire→ExpireTime, sub→SubLink,
// the single vless string wrapped into a one-element Links slice.
func (resp *sanaeiResponse) toPanelUser(fallbackName string) *PanelUser {
	name := resp.Result.Name
	if name == "" {
		name = fallbackName
	}
	user := &PanelUser{
		Username:    name,
		UsedTraffic: resp.Result.Usage,
		DataLimit:   resp.Result.Traffic,
		ExpireTime:  resp.Result.Expire,
		SubLink:     resp.Result.Sub,
	}
	if resp.Result.Vless != "" {
		user.Links = []string{resp.Result.Vless}
	}
	return user
}

func (s *SanaeiClient) CreateUser(ctx context.Context, req CreateUserRequest) (*PanelUser, error) {
	endpoint := fmt.Sprintf("add/format/json/name/%s/traffic/%d/day/%d",
		req.Username, req.DataLimitGB, req.DurationDays)
	resp, err := s.call(endpoint)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("sanaei create rejected for %s", req.Username)
	}
	return resp.toPanelUser(req.Username), nil
}

func (s *SanaeiClient) GetUser(ctx context.Context, username string) (*PanelUser, error) {
	resp, err := s.call("user/format/json/name/" + username)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("sanaei user %s not found", username)
	}
	return resp.toPanelUser(username), nil
}

func (s *SanaeiClient) DeleteUser(ctx context.Context, username string) error {
	resp, err := s.call("delete/format/json/name/" + username)
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("sanaei delete rejected for %s", username)
	}
	return nil
}

// ModifyUser is not implemented for Sanaei yet; renewal/recharge goes
// through support.
func (s *SanaeiClient) ModifyUser(ctx context.Context, username string, req ModifyUserRequest) error {
	return ErrNotSupported
}
