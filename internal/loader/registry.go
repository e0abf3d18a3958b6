package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Options configures a source when it is opened.
type Options struct {
	// Path is a source-specific location (e.g. the document for the json source).
	Path string

	// Token authenticates against remote sources (github).
	Token string

	// BaseURL overrides the remote API endpoint; mainly for tests and GHES.
	BaseURL string

	// Logger receives request-level debug records from sources that make
	// remote calls. nil disables them.
	Logger *slog.Logger
}

// Source is a named, self-registering factory for string-keyed loaders.
type Source interface {
	Name() string
	Description() string
	Open(ctx context.Context, opts Options) (Loader[string, any], error)
}

var (
	sourceRegistry = make(map[string]Source)
	sourceMu       sync.RWMutex
)

func Register(s Source) {
	if s == nil {
		panic("source is nil")
	}
	name := s.Name()
	if name == "" {
		panic("source name is empty")
	}

	sourceMu.Lock()
	defer sourceMu.Unlock()
	if _, exists := sourceRegistry[name]; exists {
		panic(fmt.Sprintf("source %s already registered", name))
	}
	sourceRegistry[name] = s
}

func Resolve(name string) (Source, bool) {
	sourceMu.RLock()
	defer sourceMu.RUnlock()
	s, ok := sourceRegistry[name]
	return s, ok
}

func List() []Source {
	sourceMu.RLock()
	defer sourceMu.RUnlock()

	all := make([]Source, 0, len(sourceRegistry))
	for _, s := range sourceRegistry {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}
