package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"vpnshop/config"

	"github.com/google/uuid"
)

// Client talks to a 3x-ui style panel over HTTP. Session auth via /login
// (cookie), then JSON calls under /panel/api/inbounds.
type Client struct {
	baseURL   string
	username  string
	password  string
	inboundID int
	http      *http.Client
}

func NewClient(cfg config.PanelConfig) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		username:  cfg.Username,
		password:  cfg.Password,
		inboundID: cfg.InboundID,
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
			Jar:     jar,
		},
	}, nil
}

type apiResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

func (c *Client) login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("panel login: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("panel login rejected: %s", out.Msg)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("panel %s: status %d", path, resp.StatusCode)
	}
	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("panel %s: %w", path, err)
	}
	if !out.Success {
		return fmt.Errorf("panel %s: %s", path, out.Msg)
	}
	return nil
}

type clientSettings struct {
	Clients []panelClient `json:"clients"`
}

type panelClient struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	ExpiryTime int64  `json:"expiryTime"` // unix ms
	Enable     bool   `json:"enable"`
}

func (c *Client) addOrUpdateClient(ctx context.Context, path, clientID, email string, expiresAt time.Time) error {
	settings, err := json.Marshal(clientSettings{Clients: []panelClient{{
		ID:         clientID,
		Email:      email,
		ExpiryTime: expiresAt.UnixMilli(),
		Enable:     true,
	}}})
	if err != nil {
		return err
	}
	return c.postJSON(ctx, path, map[string]interface{}{
		"id":       c.inboundID,
		"settings": string(settings),
	})
}

// Issue creates a fresh client valid for the given number of days.
func (c *Client) Issue(ctx context.Context, hostName, email string, days int) (*ProvisionResult, error) {
	if err := c.login(ctx); err != nil {
		return nil, err
	}
	clientID := uuid.New().String()
	expiresAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	if err := c.addOrUpdateClient(ctx, "/panel/api/inbounds/addClient", clientID, email, expiresAt); err != nil {
		return nil, err
	}
	return &ProvisionResult{
		ClientUUID:       clientID,
		ExpiresAt:        expiresAt,
		ConnectionString: connectionString(clientID, hostName, email),
	}, nil
}

// Extend pushes the client's expiry forward by the given number of days,
// counting from now (expired keys restart today, active keys are assumed
// extended by the panel from their current expiry).
func (c *Client) Extend(ctx context.Context, hostName, email string, days int) (*ProvisionResult, error) {
	if err := c.login(ctx); err != nil {
		return nil, err
	}
	clientID := uuid.New().String()
	expiresAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	path := "/panel/api/inbounds/updateClient/" + url.PathEscape(email)
	if err := c.addOrUpdateClient(ctx, path, clientID, email, expiresAt); err != nil {
		return nil, err
	}
	return &ProvisionResult{
		ClientUUID:       clientID,
		ExpiresAt:        expiresAt,
		ConnectionString: connectionString(clientID, hostName, email),
	}, nil
}

func connectionString(clientID, hostName, email string) string {
	return fmt.Sprintf("vless://%s@%s:443?type=tcp&security=reality#%s", clientID, hostName, email)
}
