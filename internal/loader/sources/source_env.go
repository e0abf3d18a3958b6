package sources

import (
	"context"
	"fmt"
	"os"

	"keyload/internal/loader"
)

// EnvLoader maps keys to environment variables, optionally under a prefix.
// It loads one key at a time and supports writes.
type EnvLoader struct {
	prefix string
}

func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix}
}

func (l *EnvLoader) Load(ctx context.Context, key string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := os.LookupEnv(l.prefix + key)
	if !ok {
		return nil, fmt.Errorf("%s%s: %w", l.prefix, key, loader.ErrNotFound)
	}
	return v, nil
}

func (l *EnvLoader) Write(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Setenv(l.prefix+key, fmt.Sprint(value))
}

func (l *EnvLoader) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Unsetenv(l.prefix + key)
}

type envSource struct{}

func (envSource) Name() string { return "env" }

func (envSource) Description() string {
	return "process environment variables; --path sets a name prefix"
}

func (envSource) Bulk() bool     { return false }
func (envSource) Writable() bool { return true }

func (envSource) Open(_ context.Context, opts loader.Options) (loader.Loader[string, any], error) {
	return NewEnvLoader(opts.Path), nil
}

func init() {
	loader.Register(envSource{})
}
