package items

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/statekit/internal/state"
)

// Fetcher is implemented by *Client and can be faked in tests.
type Fetcher interface {
	FetchPage(ctx context.Context, page, pageSize int) ([]Item, error)
	FetchItem(ctx context.Context, id int64) (Item, error)
	SaveItem(ctx context.Context, item Item) error
}

var _ Fetcher = (*Client)(nil)

// Client talks to the items HTTP API. Failures are returned as
// *state.StateError values, except context cancellation which is returned
// as-is.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIURL    = "127.0.0.1:7490"
	defaultUserAgent = "statekit/0.1"
	requestTimeout   = 5 * time.Second
)

// NewClient builds a Client for apiURL. A bare host:port is taken as http.
func NewClient(apiURL string) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchPage retrieves one page of items. Pages are 0-indexed.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int) ([]Item, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	if pageSize > 0 {
		values.Set("page_size", strconv.Itoa(pageSize))
	}
	rel := &url.URL{Path: "/api/items", RawQuery: values.Encode()}
	var payload ListResponse
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// FetchItem retrieves a single item.
func (c *Client) FetchItem(ctx context.Context, id int64) (Item, error) {
	if c == nil {
		return Item{}, fmt.Errorf("client is nil")
	}
	var payload Item
	if err := c.doURL(ctx, http.MethodGet, itemPath(id), nil, &payload); err != nil {
		return Item{}, err
	}
	return payload, nil
}

// SaveItem replaces the stored item with the same ID.
func (c *Client) SaveItem(ctx context.Context, item Item) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	body, err := json.Marshal(item)
	if err != nil {
		return state.DecodeError(err.Error())
	}
	return c.doURL(ctx, http.MethodPut, itemPath(item.ID), body, nil)
}

func itemPath(id int64) *url.URL {
	return &url.URL{Path: "/api/items/" + strconv.FormatInt(id, 10)}
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body []byte, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return state.NetworkError(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(rel, resp.StatusCode); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return state.DecodeError(err.Error())
	}
	return nil
}

func statusError(rel *url.URL, code int) error {
	switch {
	case code < 400:
		return nil
	case code == http.StatusUnauthorized:
		return state.UnauthorizedError()
	case code == http.StatusNotFound:
		return state.NotFoundError()
	default:
		return state.NetworkError(fmt.Sprintf("api %s returned status %d", rel.Path, code))
	}
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
