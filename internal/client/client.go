// Package client implements service.Service over the task API's HTTP surface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tasklist/internal/service"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 10 * time.Second

// StatusError is returned for unexpected non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: backend returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the task API.
type Client struct {
	base string
	http *http.Client
}

var _ service.Service = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTransport keeps the default client but swaps its round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

// New builds a client for backendHost, which is either host:port or a full
// http(s) URL.
func New(backendHost string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(backendHost), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	c := &Client{base: base, http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved backend URL.
func (c *Client) BaseURL() string { return c.base }

type taskList struct {
	Tasks []service.Task `json:"tasks"`
}

func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var out taskList
	if err := c.doJSON(ctx, http.MethodGet, "/read/allTasks", nil, &out); err != nil {
		return nil, err
	}
	if out.Tasks == nil {
		out.Tasks = []service.Task{}
	}
	return out.Tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (service.Task, error) {
	var t service.Task
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/read/task/%d", id), nil, &t); err != nil {
		return service.Task{}, err
	}
	return t, nil
}

func (c *Client) CreateTask(ctx context.Context, description string) error {
	_, err := c.do(ctx, http.MethodPost, "/create/task", descriptionBody(description))
	return err
}

func (c *Client) UpdateTask(ctx context.Context, id int64, description string) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/update/task/%d", id), descriptionBody(description))
	return err
}

func (c *Client) SetCompleted(ctx context.Context, id int64, completed bool) error {
	path := fmt.Sprintf("/incomplete/task/%d", id)
	if completed {
		path = fmt.Sprintf("/complete/task/%d", id)
	}
	_, err := c.do(ctx, http.MethodPut, path, nil)
	return err
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/delete/task/%d", id), nil)
	return err
}

func descriptionBody(description string) any {
	return struct {
		Description string `json:"description"`
	}{description}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	b, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// do sends one request and returns the body of a 2xx response. 404 maps to
// service.ErrNotFound and 400 to *service.ValidationError.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, service.ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &service.ValidationError{Reason: strings.TrimSpace(string(respBody))}
	default:
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
