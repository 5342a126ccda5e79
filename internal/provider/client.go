// Package provider wraps the publishing provider's HTTP contract. The
// provider is the system of record for delivery: it fires scheduled posts
// itself and owns per-platform results.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/apperr"
)

// Gateway is the typed surface of the provider API the rest of the
// service depends on.
type Gateway interface {
	UploadMedia(ctx context.Context, fileName, contentType string, data []byte) (*UploadResult, error)
	SubmitImmediatePost(ctx context.Context, platforms map[string]any) (*PostResult, error)
	SubmitScheduledPost(ctx context.Context, platforms map[string]any, scheduledFor time.Time) (*PostResult, error)
	UpdatePost(ctx context.Context, postID string, platforms map[string]any, scheduledAt *time.Time) error
	DeletePost(ctx context.Context, postID string) error
	FetchPost(ctx context.Context, postID string) (*PostResult, error)
	FetchPostAnalytics(ctx context.Context, postID string) (json.RawMessage, error)
	FetchAccountAnalytics(ctx context.Context, accountID string) (json.RawMessage, error)
	FetchAccount(ctx context.Context, accountID string) (*AccountResult, error)
	FetchUpload(ctx context.Context, uploadID string) (*UploadResult, error)
	DisconnectAccount(ctx context.Context, accountID string) error
	DeleteTeamAndAllData(ctx context.Context, teamID string) error
}

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	sleep   func(time.Duration)
}

var _ Gateway = (*Client)(nil)

func New(cfg config.Provider) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		sleep:   time.Sleep,
	}
}

// Post submission is the only operation that retries, and only on
// transport-level timeout: first retry after 5s, second after 10s.
var submitBackoff = []time.Duration{5 * time.Second, 10 * time.Second}

func (c *Client) SubmitImmediatePost(ctx context.Context, platforms map[string]any) (*PostResult, error) {
	req := &PostRequest{
		Status:      StatusScheduled,
		ScheduledAt: time.Now().Add(-time.Second),
		Platforms:   platforms,
	}
	return c.submit(ctx, req)
}

func (c *Client) SubmitScheduledPost(ctx context.Context, platforms map[string]any, scheduledFor time.Time) (*PostResult, error) {
	req := &PostRequest{
		Status:      StatusScheduled,
		ScheduledAt: scheduledFor,
		Platforms:   platforms,
	}
	return c.submit(ctx, req)
}

func (c *Client) submit(ctx context.Context, req *PostRequest) (*PostResult, error) {
	var result PostResult
	for attempt := 0; ; attempt++ {
		err := c.doJSON(ctx, http.MethodPost, "/post", req, &result)
		if err == nil {
			return &result, nil
		}
		if !apperr.IsTimeout(err) || attempt >= len(submitBackoff) {
			return nil, err
		}
		slog.Info("provider submission timed out, retrying",
			"attempt", attempt+1, "backoff", submitBackoff[attempt].String())
		c.sleep(submitBackoff[attempt])
	}
}

func (c *Client) UpdatePost(ctx context.Context, postID string, platforms map[string]any, scheduledAt *time.Time) error {
	body := map[string]any{"platforms": platforms}
	if scheduledAt != nil {
		body["scheduledAt"] = scheduledAt
	}
	return c.doJSON(ctx, http.MethodPatch, "/post/"+postID, body, nil)
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/post/"+postID, nil, nil)
}

func (c *Client) FetchPost(ctx context.Context, postID string) (*PostResult, error) {
	var result PostResult
	if err := c.doJSON(ctx, http.MethodGet, "/post/"+postID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) FetchPostAnalytics(ctx context.Context, postID string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/post/"+postID+"/analytics", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) FetchAccountAnalytics(ctx context.Context, accountID string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/account/"+accountID+"/analytics", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) FetchAccount(ctx context.Context, accountID string) (*AccountResult, error) {
	var result AccountResult
	if err := c.doJSON(ctx, http.MethodGet, "/account/"+accountID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) FetchUpload(ctx context.Context, uploadID string) (*UploadResult, error) {
	var result UploadResult
	if err := c.doJSON(ctx, http.MethodGet, "/upload/"+uploadID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DisconnectAccount(ctx context.Context, accountID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/account/"+accountID, nil, nil)
}

// DeleteTeamAndAllData removes the provider-side team; the provider
// cascades the delete to all dependent accounts, uploads and posts.
func (c *Client) DeleteTeamAndAllData(ctx context.Context, teamID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/team/"+teamID, nil, nil)
}

// UploadMedia streams the raw video bytes to the provider as multipart
// form data. Nothing is written to local disk.
func (c *Client) UploadMedia(ctx context.Context, fileName, contentType string, data []byte) (*UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	if err := writer.WriteField("contentType", contentType); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.responseError(resp)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &result, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return c.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

func (c *Client) transportError(err error) error {
	if isTimeout(err) {
		return apperr.Wrap(apperr.KindProviderTimeout, err,
			"provider request timed out; the submission may still be processing on the provider side")
	}
	return apperr.Wrap(apperr.KindProvider, err, "provider request failed")
}

// responseError extracts the provider's own diagnostic text when the body
// carries one, falling back to the HTTP status.
func (c *Client) responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil && eb.text() != "" {
		return apperr.Provider("%s", eb.text())
	}
	return apperr.Provider("provider returned status %s", resp.Status)
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// WithSleep overrides the retry delay function. Retry timing stays
// deterministic in tests.
func (c *Client) WithSleep(sleep func(time.Duration)) *Client {
	c.sleep = sleep
	return c
}
