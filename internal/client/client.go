// Package client talks to the user backend over its PHP-style HTTP/JSON API.
//
// Every operation is a single request/response cycle. Failures of any kind
// (transport, HTTP status, malformed JSON, local validation) are logged and
// turned into a safe default: an empty list, a nil user or false. None of the
// exported methods return an error.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "userdesk/internal/domain/user"
	apperrors "userdesk/pkg/errors"
	"userdesk/pkg/logger"
)

const (
	// DefaultBaseURL is the backend root used when none is configured.
	DefaultBaseURL = "http://localhost/backend/"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 10 << 20
)

// Backend endpoints, relative to the base URL.
const (
	pathList    = "list.php"
	pathDetails = "details.php"
	pathCreate  = "create.php"
	pathUpdate  = "update.php"
	pathDelete  = "delete.php"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the backend API client. It owns its connection pool; call Close
// when the client is no longer needed.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	transport *http.Transport
	log       *zap.Logger
	validate  *validator.Validate
}

// New creates a Client for cfg. Zero fields fall back to DefaultBaseURL and
// DefaultTimeout.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", cfg.BaseURL)
	}
	// Endpoints resolve relative to the base, which must therefore name a directory.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &Client{
		baseURL: base,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		transport: transport,
		log:       log.Named("client"),
		validate:  newValidator(),
	}, nil
}

// BaseURL returns the resolved backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// ListUsers returns every user known to the backend. It returns an empty
// slice when the backend answers with an empty body or when anything fails.
func (c *Client) ListUsers(ctx context.Context) []domain.User {
	ctx, log := c.scoped(ctx)
	const op = "list users"

	body, err := c.do(ctx, op, http.MethodGet, pathList, nil, nil)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return []domain.User{}
	}
	if len(body) == 0 {
		log.Warn("backend returned an empty user list body")
		return []domain.User{}
	}

	users, err := decodeUsers(op, body)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return []domain.User{}
	}

	log.Debug("listed users", zap.Int("count", len(users)))
	return users
}

// GetUser returns the user with the given id, or nil when id is not
// positive, the backend has no such user, or anything fails.
func (c *Client) GetUser(ctx context.Context, id int64) *domain.User {
	ctx, log := c.scoped(ctx)
	const op = "get user"

	if id <= 0 {
		log.Warn("get user validation failed", zap.Int64("id", id), zap.String("reason", "id must be greater than zero"))
		return nil
	}

	query := url.Values{"id": {strconv.FormatInt(id, 10)}}
	body, err := c.do(ctx, op, http.MethodGet, pathDetails, query, nil)
	if err != nil {
		log.Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil
	}
	if len(body) == 0 {
		log.Warn("backend returned an empty user body", zap.Int64("id", id))
		return nil
	}

	u, err := decodeUser(op, body)
	if err != nil {
		log.Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil
	}
	// A body without a persisted id (null, {} or an error object) means no such user.
	if u == nil || u.ID <= 0 {
		log.Warn("user not found", zap.Int64("id", id))
		return nil
	}

	return u
}

// CreateUser asks the backend to create u. The id of u is ignored. It
// reports whether the backend answered {"success": true}.
func (c *Client) CreateUser(ctx context.Context, u *domain.User) bool {
	ctx, log := c.scoped(ctx)
	const op = "create user"

	if u == nil {
		log.Warn("create user validation failed", zap.String("reason", "user is nil"))
		return false
	}
	log.Info("creating user", zap.String("nom", u.LastName), zap.String("prenom", u.FirstName), zap.Int("age", u.Age))

	if err := c.validate.Struct(createInput{LastName: u.LastName, FirstName: u.FirstName, Age: u.Age}); err != nil {
		log.Warn("create user validation failed", zap.Error(formatValidationError(err)))
		return false
	}

	return c.submit(ctx, log, op, pathCreate, EncodeForm(u, false))
}

// UpdateUser asks the backend to overwrite the user identified by u.ID. It
// reports whether the backend answered {"success": true}.
func (c *Client) UpdateUser(ctx context.Context, u *domain.User) bool {
	ctx, log := c.scoped(ctx)
	const op = "update user"

	if u == nil {
		log.Warn("update user validation failed", zap.String("reason", "user is nil"))
		return false
	}
	log.Info("updating user", zap.Int64("id", u.ID), zap.String("nom", u.LastName), zap.String("prenom", u.FirstName), zap.Int("age", u.Age))

	in := updateInput{ID: u.ID, LastName: u.LastName, FirstName: u.FirstName, Age: u.Age}
	if err := c.validate.Struct(in); err != nil {
		log.Warn("update user validation failed", zap.Int64("id", u.ID), zap.Error(formatValidationError(err)))
		return false
	}

	return c.submit(ctx, log, op, pathUpdate, EncodeForm(u, true))
}

// DeleteUser asks the backend to delete the user with the given id. It
// reports whether the backend answered {"success": true}.
func (c *Client) DeleteUser(ctx context.Context, id int64) bool {
	ctx, log := c.scoped(ctx)
	const op = "delete user"

	log.Info("deleting user", zap.Int64("id", id))
	if id <= 0 {
		log.Warn("delete user validation failed", zap.Int64("id", id), zap.String("reason", "id must be greater than zero"))
		return false
	}

	return c.submit(ctx, log, op, pathDelete, url.Values{"id": {strconv.FormatInt(id, 10)}})
}

// submit posts form and interprets the success flag of the answer.
func (c *Client) submit(ctx context.Context, log *zap.Logger, op, path string, form url.Values) bool {
	body, err := c.do(ctx, op, http.MethodPost, path, nil, form)
	if err != nil {
		log.Error("failed to "+op, zap.Error(err))
		return false
	}

	ok, err := decodeSuccess(op, body)
	if err != nil {
		log.Error("failed to "+op, zap.Error(err))
		return false
	}
	if !ok {
		log.Warn(op+" rejected by backend", zap.ByteString("response", truncate(body, 256)))
	}
	return ok
}

// do performs one request and returns the body of a 2xx response, trimmed
// of surrounding whitespace.
func (c *Client) do(ctx context.Context, op, method, path string, query, form url.Values) ([]byte, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: path})
	if query != nil {
		target.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return nil, apperrors.NewInternalError(op+": failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if id := logger.GetRequestID(ctx); id != "" {
		req.Header.Set(logger.RequestIDHeader, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewTransportError(op, err)
	}

	logger.WithContext(ctx, c.log).Debug("backend responded",
		zap.String("method", method),
		zap.String("url", target.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewStatusError(op, resp.StatusCode)
	}

	return bytes.TrimSpace(body), nil
}

// scoped makes sure ctx carries a request id and returns a logger tagged with it.
func (c *Client) scoped(ctx context.Context) (context.Context, *zap.Logger) {
	ctx, _ = logger.EnsureRequestID(ctx)
	return ctx, logger.WithContext(ctx, c.log)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
