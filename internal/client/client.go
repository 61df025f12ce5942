// Package client talks to the todo REST API and maps its error responses
// back onto the store's sentinel errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"todo-app/internal/models"
	"todo-app/internal/store"
)

const DefaultBaseURL = "http://127.0.0.1:8080"

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

type Client struct {
	base string
	http *http.Client
	log  *log.Logger
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context) ([]models.Todo, error) {
	var todos []models.Todo
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *Client) Get(ctx context.Context, id int64) (models.Todo, error) {
	var todo models.Todo
	err := c.do(ctx, http.MethodGet, todoPath(id), nil, &todo)
	return todo, err
}

func (c *Client) Create(ctx context.Context, title, description string) (models.Todo, error) {
	var todo models.Todo
	body := map[string]string{"title": title, "description": description}
	err := c.do(ctx, http.MethodPost, "/todos", body, &todo)
	return todo, err
}

func (c *Client) Update(ctx context.Context, id int64, completed bool) (models.Todo, error) {
	var todo models.Todo
	err := c.do(ctx, http.MethodPut, todoPath(id), map[string]bool{"completed": completed}, &todo)
	return todo, err
}

func (c *Client) Delete(ctx context.Context, id int64) (models.Todo, error) {
	var todo models.Todo
	err := c.do(ctx, http.MethodDelete, todoPath(id), nil, &todo)
	return todo, err
}

func todoPath(id int64) string {
	return "/todos/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
	}
	defer resp.Body.Close()
	c.log.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// statusError turns a non-2xx response into an error matching the store sentinels.
func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
		if body.Error == "" {
			body.Error = resp.Status
		}
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", store.ErrValidation, body.Error)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", store.ErrNotFound, body.Error)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", store.ErrStorageConflict, body.Error)
	case resp.StatusCode == http.StatusInternalServerError:
		if strings.Contains(strings.ToLower(body.Error), "corrupt") {
			return fmt.Errorf("%w: %s", store.ErrStorageCorrupt, body.Error)
		}
		return fmt.Errorf("server error: %s", body.Error)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", store.ErrStorageUnavailable, body.Error)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body.Error)
	}
}
