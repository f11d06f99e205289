package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/hadithconsole/internal/content"
	"github.com/hadithconsole/internal/models"
)

const DefaultBaseURL = "http://localhost:8080"

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient reads HADITH_API_URL and HADITH_API_TOKEN from the environment.
// The token may be empty for commands that do not need a session.
func NewClient() *Client {
	baseURL := os.Getenv("HADITH_API_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return New(baseURL, os.Getenv("HADITH_API_TOKEN"))
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			// A cron run waits for every delivery of the tick.
			Timeout: 60 * time.Second,
		},
	}
}

// CreatedNotification is the reply to a create. FCMError or StorageError is
// set when only part of an immediate notification succeeded.
type CreatedNotification struct {
	models.Notification
	FCMError     string `json:"fcmError,omitempty"`
	StorageError string `json:"storageError,omitempty"`
}

type CronRun struct {
	OK        bool     `json:"ok"`
	Processed int      `json:"processed"`
	Errors    int      `json:"errors"`
	Details   []string `json:"details"`
	Timestamp string   `json:"timestamp"`
}

func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/auth", map[string]string{"password": password}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := c.send(ctx, http.MethodGet, "/api/notifications", nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *Client) CreateNotification(ctx context.Context, in content.NotificationInput) (*CreatedNotification, error) {
	var created CreatedNotification
	if err := c.send(ctx, http.MethodPost, "/api/notifications", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateNotification(ctx context.Context, patch content.NotificationPatch) (*models.Notification, error) {
	var n models.Notification
	if err := c.send(ctx, http.MethodPut, "/api/notifications", patch, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/notifications?"+url.Values{"id": {id}}.Encode(), nil, nil)
}

func (c *Client) ListHadiths(ctx context.Context) ([]models.Hadith, error) {
	var hadiths []models.Hadith
	if err := c.send(ctx, http.MethodGet, "/api/hadiths", nil, &hadiths); err != nil {
		return nil, err
	}
	return hadiths, nil
}

func (c *Client) CreateHadith(ctx context.Context, in content.HadithInput) (*models.Hadith, error) {
	var h models.Hadith
	if err := c.send(ctx, http.MethodPost, "/api/hadiths", in, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) DeleteHadith(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/hadiths?"+url.Values{"id": {id}}.Encode(), nil, nil)
}

func (c *Client) ListCronLogs(ctx context.Context) ([]models.CronLog, error) {
	var logs []models.CronLog
	if err := c.send(ctx, http.MethodGet, "/api/cron-logs", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) ClearCronLogs(ctx context.Context) error {
	return c.send(ctx, http.MethodDelete, "/api/cron-logs", nil, nil)
}

// RunCron triggers one job run, authenticating with the cron secret instead
// of the session token.
func (c *Client) RunCron(ctx context.Context, secret string) (*CronRun, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/cron", nil, secret)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var run CronRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &run, nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, data, v interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	resp, err := c.doRequest(ctx, method, endpoint, body, c.token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body io.Reader, bearer string) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	u.Path = path.Join(u.Path, ref.Path)
	u.RawQuery = ref.RawQuery

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return resp, nil
}
