package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pagebuilder/internal/domain"
)

// ErrUnauthorized is returned when the API rejects the bearer token.
var ErrUnauthorized = errors.New("adminapi: unauthorized")

// APIError is a non-success reply from the admin API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("admin api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("admin api: %d: %s", e.Status, e.Message)
}

// Client talks to the admin REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for baseURL. An empty token sends no
// Authorization header.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e OKResponse
		_ = json.Unmarshal(data, &e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListSites returns every site the token can edit.
func (c *Client) ListSites(ctx context.Context) ([]domain.Site, error) {
	var out ItemsResponse[domain.Site]
	if err := c.do(ctx, http.MethodGet, "/api/admin/sites", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateSite creates a site.
func (c *Client) CreateSite(ctx context.Context, in CreateSiteRequest) (*domain.Site, error) {
	var out SiteResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/sites", in, &out); err != nil {
		return nil, err
	}
	if !out.OK || out.Site == nil {
		return nil, &APIError{Status: http.StatusOK, Message: out.Error}
	}
	return out.Site, nil
}

// GetPage loads one page with its blocks.
func (c *Client) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	var out PageResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/pages/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if out.Page == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "page " + id + " not found"}
	}
	return out.Page.Page(), nil
}

// ListPages returns the pages of a site.
func (c *Client) ListPages(ctx context.Context, siteID string) ([]domain.Page, error) {
	var out ItemsResponse[WirePage]
	path := "/api/admin/pages?siteId=" + url.QueryEscape(siteID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	pages := make([]domain.Page, len(out.Items))
	for i, p := range out.Items {
		pages[i] = *p.Page()
	}
	return pages, nil
}

// SavePage creates or updates a page and returns its id.
func (c *Client) SavePage(ctx context.Context, in SavePageRequest) (string, error) {
	var out SavePageResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/pages/save", in, &out); err != nil {
		return "", err
	}
	if !out.OK {
		return "", &APIError{Status: http.StatusOK, Message: out.Error}
	}
	return out.ID, nil
}

// PublishPage publishes a saved page and returns the URL reported by the
// server, which may be empty.
func (c *Client) PublishPage(ctx context.Context, id string) (string, error) {
	var out PublishResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/pages/publish", PublishRequest{ID: id}, &out); err != nil {
		return "", err
	}
	if !out.OK {
		return "", &APIError{Status: http.StatusOK, Message: out.Error}
	}
	return out.URL, nil
}

// ListRevisions returns the saved revisions of a page, newest first.
func (c *Client) ListRevisions(ctx context.Context, pageID string) ([]RevisionInfo, error) {
	var out ItemsResponse[RevisionInfo]
	if err := c.do(ctx, http.MethodGet, "/api/admin/pages/"+url.PathEscape(pageID)+"/revisions", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// MenuItems returns the flat rows of one menu.
func (c *Client) MenuItems(ctx context.Context, siteID string, menu domain.MenuName, locale string) ([]domain.MenuRow, error) {
	q := url.Values{}
	q.Set("siteId", siteID)
	q.Set("menu", string(menu))
	q.Set("locale", locale)
	var out ItemsResponse[domain.MenuRow]
	if err := c.do(ctx, http.MethodGet, "/api/admin/menu-items?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// SaveMenuTree replaces one menu with the given flat rows.
func (c *Client) SaveMenuTree(ctx context.Context, in SaveTreeRequest) error {
	var out OKResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/menu-items/save-tree", in, &out); err != nil {
		return err
	}
	if !out.OK {
		return &APIError{Status: http.StatusOK, Message: out.Error}
	}
	return nil
}
