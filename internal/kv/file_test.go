package kv

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackendSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	a := New(backend, "perfil:1", zerolog.Nop())
	require.NoError(t, a.Save(ctx, KeyUsers, []sample{{ID: "u1", Name: "Ana"}}))

	reopened, err := NewFileBackend(dir)
	require.NoError(t, err)
	b := New(reopened, "perfil:1", zerolog.Nop())

	var out []sample
	found, err := b.Load(ctx, KeyUsers, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ana", out[0].Name)
}

func TestFileBackendMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	_, err = backend.Get(ctx, "nada")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.SetMany(ctx, map[string][]byte{"a": []byte(`1`), "b": []byte(`2`)}))
	got, err := backend.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))

	require.NoError(t, backend.Delete(ctx, "a"))
	require.NoError(t, backend.Delete(ctx, "a"))
	_, err = backend.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}
