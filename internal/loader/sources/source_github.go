package sources

import (
	"context"
	"errors"
	"fmt"

	"keyload/internal/failure"
	gh "keyload/internal/github"
	"keyload/internal/loader"
)

// githubBatchSize caps the number of aliased repository fields per GraphQL
// request; GitHub rejects queries whose node count grows too large.
const githubBatchSize = 50

// GitHubLoader resolves "owner/name" keys to gh.Repository values. Single
// keys go through REST, bulk requests through batched GraphQL queries.
type GitHubLoader struct {
	client    *gh.Client
	batchSize int
}

func NewGitHubLoader(client *gh.Client) *GitHubLoader {
	return &GitHubLoader{client: client, batchSize: githubBatchSize}
}

func (l *GitHubLoader) Load(ctx context.Context, key string) (any, error) {
	if err := l.client.Budget.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	repo, err := gh.GetRepository(ctx, l.client, key)
	if err != nil {
		return nil, notFound(err)
	}
	return repo, nil
}

// LoadAll reports malformed keys and per-repository GraphQL errors as a
// *failure.BulkLoadingFailure. A failed request fails only the keys of its
// batch.
func (l *GitHubLoader) LoadAll(ctx context.Context, keys []string) (map[string]any, error) {
	values := make(map[string]any, len(keys))
	failures := make(map[string]error)

	valid := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, _, err := gh.ParseRepoRef(k); err != nil {
			failures[k] = err
			continue
		}
		valid = append(valid, k)
	}

	for start := 0; start < len(valid); start += l.batchSize {
		batch := valid[start:min(start+l.batchSize, len(valid))]

		err := ctx.Err()
		if err == nil {
			err = l.client.Budget.Acquire(ctx, 1)
		}
		if err != nil {
			for _, k := range batch {
				failures[k] = err
			}
			continue
		}

		found, failed, err := gh.GetRepositories(ctx, l.client, batch)
		if err != nil {
			for _, k := range batch {
				failures[k] = err
			}
			continue
		}
		for k, repo := range found {
			values[k] = repo
		}
		for k, ferr := range failed {
			failures[k] = notFound(ferr)
		}
	}

	if len(failures) > 0 {
		return values, failure.NewBulkLoadingFailure(failures, values)
	}
	return values, nil
}

func notFound(err error) error {
	if errors.Is(err, gh.ErrNotFound) {
		return fmt.Errorf("%w: %w", loader.ErrNotFound, err)
	}
	return err
}

type githubSource struct{}

func (githubSource) Name() string { return "github" }

func (githubSource) Description() string {
	return "GitHub repository metadata; keys are owner/name"
}

func (githubSource) Bulk() bool     { return true }
func (githubSource) Writable() bool { return false }

func (githubSource) Open(ctx context.Context, opts loader.Options) (loader.Loader[string, any], error) {
	token, _, err := gh.ResolveAuthToken(ctx, opts.Token, opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("resolve github token: %w", err)
	}

	clientOpts := []gh.Option{gh.WithBaseURL(opts.BaseURL)}
	if opts.Logger != nil {
		clientOpts = append(clientOpts, gh.WithLogger(opts.Logger))
	}
	client, err := gh.NewClient(ctx, token, clientOpts...)
	if err != nil {
		return nil, err
	}
	return NewGitHubLoader(client), nil
}

func init() {
	loader.Register(githubSource{})
}
