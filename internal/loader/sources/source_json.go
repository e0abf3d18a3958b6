package sources

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"keyload/internal/failure"
	"keyload/internal/loader"
)

// JSONLoader resolves gjson paths against one JSON document held in memory.
type JSONLoader struct {
	doc []byte
}

func NewJSONLoader(doc []byte) (*JSONLoader, error) {
	if !gjson.ValidBytes(doc) {
		return nil, errors.New("invalid json document")
	}
	return &JSONLoader{doc: doc}, nil
}

func (l *JSONLoader) Load(ctx context.Context, key string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := gjson.GetBytes(l.doc, key)
	if !r.Exists() {
		return nil, fmt.Errorf("%s: %w", key, loader.ErrNotFound)
	}
	return r.Value(), nil
}

// LoadAll resolves every path in one pass over the document.
func (l *JSONLoader) LoadAll(ctx context.Context, keys []string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := gjson.GetManyBytes(l.doc, keys...)
	values := make(map[string]any, len(keys))
	failures := make(map[string]error)
	for i, r := range results {
		if !r.Exists() {
			failures[keys[i]] = fmt.Errorf("%s: %w", keys[i], loader.ErrNotFound)
			continue
		}
		values[keys[i]] = r.Value()
	}

	if len(failures) > 0 {
		return values, failure.NewBulkLoadingFailure(failures, values)
	}
	return values, nil
}

type jsonSource struct{}

func (jsonSource) Name() string { return "json" }

func (jsonSource) Description() string {
	return "values from a JSON document (--path); keys are gjson paths"
}

func (jsonSource) Bulk() bool     { return true }
func (jsonSource) Writable() bool { return false }

func (jsonSource) Open(_ context.Context, opts loader.Options) (loader.Loader[string, any], error) {
	if opts.Path == "" {
		return nil, errors.New("json source requires a document path")
	}
	doc, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("read json document: %w", err)
	}
	l, err := NewJSONLoader(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Path, err)
	}
	return l, nil
}

func init() {
	loader.Register(jsonSource{})
}
