package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
)

// ErrNotFound means GitHub does not know the repository, or the token cannot see it.
var ErrNotFound = errors.New("repository not found")

// Repository is the subset of repository metadata both the REST and the
// GraphQL path can produce.
type Repository struct {
	FullName      string    `json:"full_name"`
	Description   string    `json:"description,omitempty"`
	URL           string    `json:"url"`
	DefaultBranch string    `json:"default_branch,omitempty"`
	Private       bool      `json:"private"`
	Archived      bool      `json:"archived"`
	Stars         int       `json:"stars"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ParseRepoRef splits "owner/name".
func ParseRepoRef(ref string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", ref)
	}
	return owner, name, nil
}

// GetRepository fetches one repository over REST.
func GetRepository(ctx context.Context, c *Client, ref string) (Repository, error) {
	owner, name, err := ParseRepoRef(ref)
	if err != nil {
		return Repository{}, err
	}
	if c == nil || c.Client == nil {
		return Repository{}, fmt.Errorf("github: client is nil")
	}

	r, resp, err := c.Client.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return Repository{}, fmt.Errorf("%s: %w", ref, ErrNotFound)
		}
		return Repository{}, err
	}
	return fromREST(r), nil
}

func fromREST(r *github.Repository) Repository {
	return Repository{
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		URL:           r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		Archived:      r.GetArchived(),
		Stars:         r.GetStargazersCount(),
		UpdatedAt:     r.GetUpdatedAt().Time,
	}
}

type graphqlRepository struct {
	NameWithOwner    string `json:"nameWithOwner"`
	Description      string `json:"description"`
	URL              string `json:"url"`
	IsPrivate        bool   `json:"isPrivate"`
	IsArchived       bool   `json:"isArchived"`
	StargazerCount   int    `json:"stargazerCount"`
	DefaultBranchRef *struct {
		Name string `json:"name"`
	} `json:"defaultBranchRef"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *graphqlRepository) toRepository() Repository {
	out := Repository{
		FullName:    r.NameWithOwner,
		Description: r.Description,
		URL:         r.URL,
		Private:     r.IsPrivate,
		Archived:    r.IsArchived,
		Stars:       r.StargazerCount,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.DefaultBranchRef != nil {
		out.DefaultBranch = r.DefaultBranchRef.Name
	}
	return out
}

const repositoryFields = `nameWithOwner description url isPrivate isArchived stargazerCount defaultBranchRef { name } updatedAt`

// BuildRepositoriesQuery builds one aliased query ("r0", "r1", ...) for refs.
// All refs must already be valid owner/name pairs.
func BuildRepositoriesQuery(refs []string) (GraphQLRequest, error) {
	var (
		params []string
		fields []string
		vars   = make(map[string]any, 2*len(refs))
	)
	for i, ref := range refs {
		owner, name, err := ParseRepoRef(ref)
		if err != nil {
			return GraphQLRequest{}, err
		}
		n := strconv.Itoa(i)
		params = append(params, "$o"+n+": String!", "$n"+n+": String!")
		fields = append(fields, fmt.Sprintf("r%s: repository(owner: $o%s, name: $n%s) { %s }", n, n, n, repositoryFields))
		vars["o"+n] = owner
		vars["n"+n] = name
	}
	q := fmt.Sprintf("query(%s) {\n%s\n}", strings.Join(params, ", "), strings.Join(fields, "\n"))
	return GraphQLRequest{Query: q, Variables: vars}, nil
}

// GetRepositories fetches refs in one GraphQL request.
//
// A non-nil error means the request as a whole failed. Otherwise every ref
// ends up in exactly one of the two returned maps: found repositories, or a
// per-ref error (ErrNotFound for unknown repositories).
func GetRepositories(ctx context.Context, c *Client, refs []string) (map[string]Repository, map[string]error, error) {
	req, err := BuildRepositoriesQuery(refs)
	if err != nil {
		return nil, nil, err
	}

	resp, err := DoGraphQL[map[string]*graphqlRepository](ctx, c, req)
	if err != nil {
		return nil, nil, err
	}
	if reqErrs := resp.RequestErrors(); len(reqErrs) > 0 {
		return nil, nil, fmt.Errorf("graphql: %s", reqErrs[0].Message)
	}

	fieldErrs := resp.FieldErrors()
	found := make(map[string]Repository, len(refs))
	failed := make(map[string]error)
	for i, ref := range refs {
		alias := "r" + strconv.Itoa(i)
		if gerr, ok := fieldErrs[alias]; ok {
			if gerr.Type == "NOT_FOUND" {
				failed[ref] = fmt.Errorf("%s: %w", ref, ErrNotFound)
			} else {
				failed[ref] = fmt.Errorf("%s: graphql: %s", ref, gerr.Message)
			}
			continue
		}
		r := resp.Data[alias]
		if r == nil {
			failed[ref] = fmt.Errorf("%s: %w", ref, ErrNotFound)
			continue
		}
		found[ref] = r.toRepository()
	}
	return found, failed, nil
}
