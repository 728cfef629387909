package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func TestWithTx(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		ctx       context.Context
		setupMock func(mock sqlmock.Sqlmock)
		fnErr     error
		wantErr   error
	}{
		{
			name: "commits on success",
			ctx:  context.Background(),
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
		},
		{
			name: "rolls back when fn fails",
			ctx:  context.Background(),
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fnErr:   boom,
			wantErr: boom,
		},
		{
			name: "publishes claims before fn",
			ctx:  ContextWithClaims(context.Background(), Claims{Subject: "u-1", Email: "a@b.c", Role: "Comercial"}),
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("SELECT set_config").
					WithArgs(`{"sub":"u-1","email":"a@b.c","app_role":"Comercial"}`).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMock(t)
			tt.setupMock(mock)

			err := WithTx(tt.ctx, conn, func(_ *sqlx.Tx) error { return tt.fnErr })
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestClaimsFromContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	_, ok = ClaimsFromContext(ContextWithClaims(context.Background(), Claims{}))
	assert.False(t, ok, "empty subject is anonymous")

	c, ok := ClaimsFromContext(ContextWithClaims(context.Background(), Claims{Subject: "x"}))
	assert.True(t, ok)
	assert.Equal(t, "x", c.Subject)
}
