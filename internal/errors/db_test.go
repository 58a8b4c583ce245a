package errors

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, MapDBError(nil))
	})

	t.Run("connection failure is upstream_unavailable", func(t *testing.T) {
		err := MapDBError(&pgconn.PgError{Code: pgerrcode.ConnectionFailure})
		require.NotNil(t, err)
		assert.True(t, IsUpstreamUnavailable(err))
	})

	t.Run("constraint violation is internal", func(t *testing.T) {
		err := MapDBError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
		require.NotNil(t, err)
		assert.Equal(t, ErrCodeInternal, err.Code)
		assert.Equal(t, "constraint violation", err.Message)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		err := MapDBError(errors.New("driver: bad connection"))
		require.NotNil(t, err)
		assert.Equal(t, ErrCodeInternal, err.Code)
	})
}
