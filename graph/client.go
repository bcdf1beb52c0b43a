// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

var (
	ErrUnauthorized       = errors.New("graph: unauthorized (401)")
	ErrMaxRetries         = errors.New("graph: max retries exceeded")
	ErrMissingCredentials = errors.New("graph: missing credentials")
)

const (
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"
	Scope          = "https://graph.microsoft.com/.default"

	MaxAttempts    = 5
	InitialBackoff = 3 * time.Second
	MaxBackoff     = 60 * time.Second

	requestTimeout = 30 * time.Second
	errorBodyLimit = 200
)

// Environment variable names for the app registration.
const (
	EnvTenantID     = "SHAREPOINT_TENANT_ID"
	EnvClientID     = "SHAREPOINT_CLIENT_ID"
	EnvClientSecret = "SHAREPOINT_CLIENT_SECRET"
)

// Credentials identifies the app registration used for client-credential
// token requests.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// CredentialsFromEnv reads credentials through getenv. When any are
// missing the error names them; values are never included.
func CredentialsFromEnv(getenv func(string) string) (Credentials, error) {
	c := Credentials{
		TenantID:     getenv(EnvTenantID),
		ClientID:     getenv(EnvClientID),
		ClientSecret: getenv(EnvClientSecret),
	}

	var missing []string
	if c.TenantID == "" {
		missing = append(missing, EnvTenantID)
	}
	if c.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if c.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return c, nil
}

// TokenCredential builds an Entra ID client-secret credential.
func (c Credentials) TokenCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewClientSecretCredential(c.TenantID, c.ClientID, c.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("create graph credential: %w", err)
	}
	return cred, nil
}

// Client is a read-only Microsoft Graph client. Every request is rate
// limited, passes through a circuit breaker and is retried on throttling,
// 503 and timeouts.
type Client struct {
	baseURL string
	http    *http.Client
	cred    azcore.TokenCredential
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*reply]
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another Graph endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit sets the steady request rate and burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithSleep replaces the retry sleep.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// NewClient creates a Graph client authenticating with cred.
func NewClient(cred azcore.TokenCredential, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
		cred:    cred,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*reply](gobreaker.Settings{
		Name:        "graph-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 10
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return c
}

// BaseURL returns the Graph endpoint in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// reply is one completed HTTP exchange.
type reply struct {
	status int
	header http.Header
	body   []byte
}

// errServer marks a 5xx reply so the breaker counts it as a failure.
type errServer struct {
	reply *reply
}

func (e *errServer) Error() string {
	return "graph: server error " + strconv.Itoa(e.reply.status)
}

// Get fetches path (relative to the base URL, or an absolute URL under it)
// and decodes the JSON body into out. found is false for 403 and 404.
func (c *Client) Get(ctx context.Context, path string, out any) (found bool, err error) {
	body, found, err := c.fetch(ctx, path)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return true, fmt.Errorf("graph: decode %s: %w", path, err)
	}
	return true, nil
}

// fetch runs the retry loop and returns the body of a 200 reply.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, bool, error) {
	url, err := c.resolve(path)
	if err != nil {
		return nil, false, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		wait := b.NextBackOff()

		r, err := c.do(ctx, url)
		var srv *errServer
		switch {
		case errors.As(err, &srv):
			r = srv.reply
		case err != nil:
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			if !isTimeout(err) {
				return nil, false, fmt.Errorf("graph: request %s: %w", url, err)
			}
			slog.Warn("graph request timed out", "url", url, "attempt", attempt, "retry_in", wait)
			if attempt < MaxAttempts {
				if err := c.sleep(ctx, wait); err != nil {
					return nil, false, err
				}
			}
			continue
		}

		switch r.status {
		case http.StatusOK:
			return r.body, true, nil
		case http.StatusTooManyRequests:
			if ra, ok := retryAfter(r.header); ok {
				wait = ra
			}
			slog.Warn("graph throttled", "url", url, "attempt", attempt, "retry_in", wait)
		case http.StatusServiceUnavailable:
			slog.Warn("graph unavailable", "url", url, "attempt", attempt, "retry_in", wait)
		case http.StatusForbidden, http.StatusNotFound:
			slog.Warn("graph item skipped", "url", url, "status", r.status)
			return nil, false, nil
		case http.StatusUnauthorized:
			return nil, false, ErrUnauthorized
		default:
			return nil, false, fmt.Errorf("graph: status %d: %s", r.status, truncate(r.body, errorBodyLimit))
		}

		if attempt == MaxAttempts {
			break
		}
		if err := c.sleep(ctx, wait); err != nil {
			return nil, false, err
		}
	}

	return nil, false, fmt.Errorf("%w (%d attempts): %s", ErrMaxRetries, MaxAttempts, url)
}

// do performs one rate-limited, breaker-guarded exchange.
func (c *Client) do(ctx context.Context, url string) (*reply, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tok, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope}})
	if err != nil {
		return nil, fmt.Errorf("graph: acquire token: %w", err)
	}

	return c.breaker.Execute(func() (*reply, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok.Token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		r := &reply{status: resp.StatusCode, header: resp.Header, body: body}
		if r.status >= 500 {
			return nil, &errServer{reply: r}
		}
		return r, nil
	})
}

// resolve joins path onto the base URL. Absolute URLs (pagination links)
// must stay under the base URL.
func (c *Client) resolve(path string) (string, error) {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		if !strings.HasPrefix(path, c.baseURL+"/") {
			return "", fmt.Errorf("%w: link outside graph endpoint: %s", ErrScopeViolation, path)
		}
		return path, nil
	}
	return c.baseURL + "/" + strings.TrimPrefix(path, "/"), nil
}

func retryAfter(h http.Header) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
