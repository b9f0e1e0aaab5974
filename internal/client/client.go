// Package client talks to the attendance backend over its JSON HTTP API.
//
// Failures of any kind come back as *Error carrying only a human-readable
// message; status codes and structured bodies do not cross this boundary.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tajious/rollcall/internal/session"
)

type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Client)

func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

type Client struct {
	baseURL string
	auth    *session.Auth
	http    Doer
	log     zerolog.Logger
}

func New(baseURL string, auth *session.Auth, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		http:    http.DefaultClient,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Auth() *session.Auth {
	return c.auth
}

type call struct {
	method   string
	path     string
	body     interface{}
	out      interface{}
	fallback string
	public   bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	var body io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return &Error{Message: cl.fallback}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return &Error{Message: cl.fallback}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if !cl.public && c.auth != nil {
		if token := c.auth.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", cl.method).Str("path", cl.path).Msg("request failed")
		return &Error{Message: cl.fallback}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Message: cl.fallback}
	}

	c.log.Debug().Str("method", cl.method).Str("path", cl.path).Int("status", resp.StatusCode).Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Message: errorMessage(raw, cl.fallback)}
	}

	if cl.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		c.log.Warn().Err(err).Str("path", cl.path).Msg("decode response")
		return &Error{Message: fmt.Sprintf("%s: unexpected response", cl.fallback)}
	}
	return nil
}

// errorMessage picks the server's message field, falling back to its error
// field and then to the operation's default text.
func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fallback
}
