package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v81/github"

	gh "keyload/internal/github"
	"keyload/internal/loader"
	"keyload/internal/output"
)

type loadErrorPresentation struct {
	status  output.Status
	message string
}

// presentLoadError turns a per-key load error into a result status and a
// message that is safe to print. Unless verbose, request URLs are not shown.
func presentLoadError(err error, verbose bool) loadErrorPresentation {
	if err == nil {
		return loadErrorPresentation{status: output.StatusFailed, message: "unknown error"}
	}

	full := strings.TrimSpace(err.Error())
	if errors.Is(err, loader.ErrNotFound) {
		msg := "not found"
		if verbose {
			msg = full
		}
		return loadErrorPresentation{status: output.StatusSkipped, message: msg}
	}

	if verbose {
		return loadErrorPresentation{status: output.StatusFailed, message: full}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return loadErrorPresentation{status: output.StatusFailed, message: "timed out"}
	case errors.Is(err, context.Canceled):
		return loadErrorPresentation{status: output.StatusFailed, message: "canceled"}
	}

	// Prefer structured GitHub error types to avoid leaking full request URLs.
	var er *github.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		if msg == "" {
			msg = "GitHub API request failed"
		}
		if er.Response != nil {
			code := er.Response.StatusCode
			return loadErrorPresentation{
				status:  output.StatusFailed,
				message: fmt.Sprintf("GitHub API request failed (%d %s): %s", code, http.StatusText(code), msg),
			}
		}
		return loadErrorPresentation{status: output.StatusFailed, message: "GitHub API request failed: " + msg}
	}

	var he *gh.HTTPError
	if errors.As(err, &he) {
		return loadErrorPresentation{
			status:  output.StatusFailed,
			message: fmt.Sprintf("GitHub GraphQL request failed (%d %s)", he.StatusCode, http.StatusText(he.StatusCode)),
		}
	}

	if scrubbed := scrubRequestFromErrorString(full); scrubbed != "" {
		return loadErrorPresentation{status: output.StatusFailed, message: scrubbed}
	}
	return loadErrorPresentation{status: output.StatusFailed, message: full}
}

// presentWriteError presents a per-key write or delete error. A key the
// source does not have is a failed write, not a skipped one.
func presentWriteError(err error, verbose bool) loadErrorPresentation {
	pres := presentLoadError(err, verbose)
	pres.status = output.StatusFailed
	return pres
}

// scrubRequestFromErrorString drops the leading "GET https://...: " of
// go-github and net/http error strings. It returns "" if s has no such prefix.
func scrubRequestFromErrorString(s string) string {
	methods := []string{"GET ", "POST ", "PUT ", "PATCH ", "DELETE ", "Get ", "Post "}
	for _, m := range methods {
		if !strings.HasPrefix(s, m) {
			continue
		}
		rest := s[len(m):]
		// net/http quotes the URL: Get "https://...": dial tcp ...
		if strings.HasPrefix(rest, `"`) {
			if j := strings.Index(rest[1:], `": `); j >= 0 {
				return strings.TrimSpace(rest[1+j+3:])
			}
			return ""
		}
		if j := strings.Index(rest, ": "); j >= 0 {
			return strings.TrimSpace(rest[j+2:])
		}
		return ""
	}
	return ""
}
