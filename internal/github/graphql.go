package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type GraphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Path    []any  `json:"path,omitempty"`
}

// Alias returns the top-level field (or alias) the error is attached to, or
// "" for request-level errors.
func (e GraphQLError) Alias() string {
	if len(e.Path) == 0 {
		return ""
	}
	s, _ := e.Path[0].(string)
	return s
}

type GraphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// RequestErrors returns the errors that are not attached to a field. Any of
// these means the whole request failed.
func (r GraphQLResponse[T]) RequestErrors() []GraphQLError {
	var out []GraphQLError
	for _, e := range r.Errors {
		if e.Alias() == "" {
			out = append(out, e)
		}
	}
	return out
}

// FieldErrors indexes field-level errors by alias. Only the first error per
// alias is kept.
func (r GraphQLResponse[T]) FieldErrors() map[string]GraphQLError {
	out := make(map[string]GraphQLError)
	for _, e := range r.Errors {
		alias := e.Alias()
		if alias == "" {
			continue
		}
		if _, seen := out[alias]; !seen {
			out[alias] = e
		}
	}
	return out
}

func graphqlEndpoint(base *url.URL) (*url.URL, error) {
	if base == nil {
		return nil, fmt.Errorf("graphql: base url is nil")
	}

	u := *base
	u.RawQuery = ""
	u.Fragment = ""

	// GHES serves REST under /api/v3 and GraphQL under /api/graphql.
	path := strings.TrimSuffix(u.Path, "/")
	if strings.HasSuffix(path, "/api/v3") {
		u.Path = strings.TrimSuffix(path, "/v3") + "/graphql"
		return &u, nil
	}

	u.Path = "/graphql"
	return &u, nil
}

// DoGraphQL executes a GraphQL POST using the REST client's transport (auth,
// logging and budget updates included).
//
// Unlike REST, a GraphQL response can carry data and errors at the same time.
// The response is returned as long as it decodes; callers inspect Errors.
func DoGraphQL[T any](ctx context.Context, c *Client, req GraphQLRequest) (GraphQLResponse[T], error) {
	var zero GraphQLResponse[T]
	if ctx == nil {
		return zero, fmt.Errorf("graphql: ctx is nil")
	}
	if c == nil || c.Client == nil || c.HTTP == nil {
		return zero, fmt.Errorf("graphql: client is nil")
	}

	endpoint, err := graphqlEndpoint(c.Client.BaseURL)
	if err != nil {
		return zero, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("graphql: marshal request: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return zero, fmt.Errorf("graphql: build request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	hresp, err := c.HTTP.Do(hreq)
	if err != nil {
		return zero, fmt.Errorf("graphql: do request: %w", err)
	}
	defer hresp.Body.Close()

	if hresp.StatusCode < 200 || hresp.StatusCode >= 300 {
		return zero, &HTTPError{StatusCode: hresp.StatusCode}
	}

	var out GraphQLResponse[T]
	if err := json.NewDecoder(hresp.Body).Decode(&out); err != nil {
		return zero, fmt.Errorf("graphql: decode response: %w", err)
	}
	return out, nil
}

// HTTPError is returned for a non-2xx GraphQL response.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("graphql: http %d", e.StatusCode)
}
