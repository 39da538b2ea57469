package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	root := t.TempDir()

	sq, err := OpenSQLiteStore(filepath.Join(root, "db", "todo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	js, err := NewJSONStore(filepath.Join(root, "data"))
	require.NoError(t, err)

	return map[string]Store{
		"sqlite": sq,
		"json":   js,
		"memory": NewMemoryStore(),
	}
}

func TestStores_GetMissingKeyReturnsErrNotFound(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get(context.Background(), "todos")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStores_SetThenGetReplacesWholeValue(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Set(ctx, "todos", []byte(`{"a":1,"b":2}`)))
			require.NoError(t, st.Set(ctx, "todos", []byte(`{}`)))
			require.NoError(t, st.Set(ctx, "selectedTab", []byte(`{"category":"TRAVEL"}`)))

			got, err := st.Get(ctx, "todos")
			require.NoError(t, err)
			assert.Equal(t, `{}`, string(got))

			got, err = st.Get(ctx, "selectedTab")
			require.NoError(t, err)
			assert.Equal(t, `{"category":"TRAVEL"}`, string(got))
		})
	}
}

func TestStores_RejectInvalidKeys(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", " todos", "../escape", `a\b`, ".hidden"} {
				assert.Error(t, st.Set(ctx, key, []byte("x")), "key %q", key)
				_, err := st.Get(ctx, key)
				assert.Error(t, err, "key %q", key)
			}
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, st.Set(ctx, "k", buf))
	buf[0] = 'z'

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
