package loader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name string
}

func (s stubSource) Name() string        { return s.name }
func (s stubSource) Description() string { return "stub " + s.name }
func (s stubSource) Open(context.Context, Options) (Loader[string, any], error) {
	return NewMemory[string, any](nil), nil
}

var stubOnce sync.Once

func TestRegistry(t *testing.T) {
	stubOnce.Do(func() {
		Register(stubSource{name: "test.zeta"})
		Register(stubSource{name: "test.alpha"})
	})

	s, ok := Resolve("test.alpha")
	require.True(t, ok)
	assert.Equal(t, "stub test.alpha", s.Description())

	_, ok = Resolve("test.missing")
	assert.False(t, ok)

	var names []string
	for _, s := range List() {
		names = append(names, s.Name())
	}
	assert.IsIncreasing(t, names)

	assert.PanicsWithValue(t, "source test.alpha already registered", func() {
		Register(stubSource{name: "test.alpha"})
	})
	assert.Panics(t, func() { Register(nil) })
	assert.Panics(t, func() { Register(stubSource{}) })
}

func TestMemory_Load(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(map[string]int{"a": 1})
	boom := errors.New("boom")

	v, err := m.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = m.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	m.FailLoad("a", boom)
	_, err = m.Load(ctx, "a")
	assert.ErrorIs(t, err, boom)

	m.FailLoad("a", nil)
	_, err = m.Load(ctx, "a")
	assert.NoError(t, err)

	assert.EqualValues(t, 4, m.Loads())
}

func TestMemory_LoadCanceledContext(t *testing.T) {
	m := NewMemory(map[string]int{"a": 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Load(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, m.Loads())
}

func TestMemory_WriteAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string, int](nil)
	readOnly := errors.New("read only")

	require.NoError(t, m.Write(ctx, "a", 1))
	require.NoError(t, m.Write(ctx, "b", 2))
	m.FailWrite("b", readOnly)
	assert.ErrorIs(t, m.Write(ctx, "b", 3), readOnly)
	assert.ErrorIs(t, m.Delete(ctx, "b"), readOnly)
	require.NoError(t, m.Delete(ctx, "a"))

	assert.Equal(t, map[string]int{"b": 2}, m.Snapshot())
	assert.EqualValues(t, 3, m.Writes())
}
