package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

type Client struct {
	Client *github.Client
	HTTP   *http.Client
	Budget *RequestBudget
}

type options struct {
	logger  *slog.Logger
	baseURL string
	budget  *RequestBudget
}

type Option func(*options)

// WithLogger enables one debug record per request and response.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBaseURL points the client at a GitHub Enterprise Server or a test server.
func WithBaseURL(raw string) Option {
	return func(o *options) {
		o.baseURL = raw
	}
}

// WithBudget shares a request budget between clients.
func WithBudget(b *RequestBudget) Option {
	return func(o *options) {
		o.budget = b
	}
}

// loggingRoundTripper records every request and its latency at debug level.
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("github api request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug("github api error", "duration", dur, "err", err)
		return resp, err
	}
	t.logger.Debug("github api response", "status", resp.StatusCode, "duration", dur)
	return resp, err
}

// budgetRoundTripper feeds rate-limit headers of every response back into the budget.
type budgetRoundTripper struct {
	base   http.RoundTripper
	budget *RequestBudget
}

func (t *budgetRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err == nil {
		t.budget.UpdateFromResponse(resp)
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.budget == nil {
		o.budget = NewRequestBudget()
	}

	transport := http.DefaultTransport
	if o.logger != nil {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	transport = &budgetRoundTripper{base: transport, budget: o.budget}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport}

	client := github.NewClient(tc)
	if o.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github client: invalid base url %q: %w", o.baseURL, err)
		}
		client.BaseURL = u
		client.UploadURL = u
	}

	return &Client{
		Client: client,
		HTTP:   tc,
		Budget: o.budget,
	}, nil
}
