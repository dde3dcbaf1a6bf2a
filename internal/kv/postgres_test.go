package kv

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresBackendSaveAndLoad(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	backend := NewPostgresBackend(conn)
	a := New(backend, "p", zerolog.Nop())
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv_entries")).
		WithArgs("p:users", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, a.Save(ctx, KeyUsers, []sample{{ID: "u1"}}))

	rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"version":1,"data":[{"id":"u1","name":""}]}`))
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).WithArgs("p:users").WillReturnRows(rows)

	var out []sample
	found, err := a.Load(ctx, KeyUsers, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "u1", out[0].ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackendMissingRow(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).WithArgs("x").WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err = NewPostgresBackend(conn).Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackendSetManyRollsBack(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv_entries")).WithArgs("a", "1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv_entries")).WithArgs("b", "2").WillReturnError(errors.New("conexão perdida"))
	mock.ExpectRollback()

	err = NewPostgresBackend(conn).SetMany(context.Background(), map[string][]byte{"a": []byte("1"), "b": []byte("2")})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackendEnsureSchemaAndDelete(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS kv_entries")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(deleteSQL)).WithArgs("p:alerts").WillReturnResult(sqlmock.NewResult(0, 1))

	backend := NewPostgresBackend(conn)
	require.NoError(t, backend.EnsureSchema(context.Background()))
	require.NoError(t, New(backend, "p", zerolog.Nop()).Remove(context.Background(), KeyAlerts))
	require.NoError(t, mock.ExpectationsWereMet())
}
