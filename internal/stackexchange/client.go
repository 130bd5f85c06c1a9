// Package stackexchange is a small client for the Stack Exchange users API,
// limited to what the mosaic needs: resolving user ids to display names and
// avatar URLs, and downloading the avatars.
package stackexchange

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"iter"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the API root every query is built under.
	DefaultBaseURL = "https://api.stackexchange.com/2.2"

	// DefaultSite is the site parameter sent with every users query.
	DefaultSite = "ru.stackoverflow"

	// MaxBatchSize is the largest number of ids the API accepts per request.
	MaxBatchSize = 100

	maxAvatarBytes = 10 << 20
)

var (
	// ErrBatchTooLarge is returned when more than MaxBatchSize ids are
	// requested at once.
	ErrBatchTooLarge = errors.New("batch size too big")

	// ErrAPI wraps error payloads returned by the API.
	ErrAPI = errors.New("stack exchange api error")
)

// User is the subset of a Stack Exchange user the mosaic needs.
type User struct {
	ID           int    `json:"user_id"`
	DisplayName  string `json:"display_name"`
	ProfileImage string `json:"profile_image"`
}

type usersResponse struct {
	Items          []User `json:"items"`
	HasMore        bool   `json:"has_more"`
	QuotaRemaining int    `json:"quota_remaining"`
	ErrorID        int    `json:"error_id"`
	ErrorName      string `json:"error_name"`
	ErrorMessage   string `json:"error_message"`
}

// Client talks to the Stack Exchange API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	site       string
	key        string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithSite sets the site whose users are queried.
func WithSite(site string) Option {
	return func(c *Client) {
		c.site = site
	}
}

// WithKey sets the application key, which raises the request quota.
func WithKey(key string) Option {
	return func(c *Client) {
		c.key = key
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client with the default site and API root.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		site:       DefaultSite,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildQuery returns the users query URL for ids.
func (c *Client) BuildQuery(ids []int) (string, error) {
	if len(ids) > MaxBatchSize {
		return "", fmt.Errorf("%w: %d ids, at most %d allowed", ErrBatchTooLarge, len(ids), MaxBatchSize)
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/users/")
	b.WriteString(strings.Join(parts, ";"))
	fmt.Fprintf(&b, "?page=1&pagesize=%d&site=%s", len(ids), url.QueryEscape(c.site))
	if c.key != "" {
		b.WriteString("&key=")
		b.WriteString(url.QueryEscape(c.key))
	}
	return b.String(), nil
}

// FetchUsers resolves one batch of ids. Users come back in the order of ids;
// ids the API does not know are skipped.
func (c *Client) FetchUsers(ctx context.Context, ids []int) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, err := c.BuildQuery(ids)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, query)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp usersResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode users response: %w", err)
	}
	if resp.ErrorID != 0 {
		return nil, fmt.Errorf("%w: %s (%d): %s", ErrAPI, resp.ErrorName, resp.ErrorID, resp.ErrorMessage)
	}

	byID := make(map[int]User, len(resp.Items))
	for _, u := range resp.Items {
		u.DisplayName = html.UnescapeString(u.DisplayName)
		byID[u.ID] = u
	}
	users := make([]User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// Users resolves ids in batches of batchSize, yielding users in id order.
// Iteration stops after the first error, which is yielded with a zero User.
func (c *Client) Users(ctx context.Context, ids []int, batchSize int) iter.Seq2[User, error] {
	return func(yield func(User, error) bool) {
		if batchSize <= 0 || batchSize > MaxBatchSize {
			yield(User{}, fmt.Errorf("%w: batch size %d", ErrBatchTooLarge, batchSize))
			return
		}
		for batch := range slices.Chunk(ids, batchSize) {
			users, err := c.FetchUsers(ctx, batch)
			if err != nil {
				yield(User{}, err)
				return
			}
			for _, u := range users {
				if !yield(u, nil) {
					return
				}
			}
		}
	}
}

// DownloadAvatar fetches the image bytes at rawURL.
func (c *Client) DownloadAvatar(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxAvatarBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	if len(data) > maxAvatarBytes {
		return nil, fmt.Errorf("avatar at %s exceeds %d bytes", rawURL, maxAvatarBytes)
	}
	return data, nil
}

// get issues a GET and returns the decoded body. The API compresses every
// response; the transport normally inflates it, but a server that sends gzip
// unasked is handled too.
func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", rawURL, err)
	}

	body := resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to read gzip body: %w", err)
		}
		body = &gzipBody{Reader: zr, raw: resp.Body}
	}

	if resp.StatusCode != http.StatusOK {
		defer body.Close()
		var apiErr usersResponse
		if json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&apiErr) == nil && apiErr.ErrorID != 0 {
			return nil, fmt.Errorf("%w: %s (%d): %s", ErrAPI, apiErr.ErrorName, apiErr.ErrorID, apiErr.ErrorMessage)
		}
		return nil, fmt.Errorf("GET %s: unexpected status %s", rawURL, resp.Status)
	}
	return body, nil
}

type gzipBody struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (b *gzipBody) Close() error {
	b.Reader.Close()
	return b.raw.Close()
}
