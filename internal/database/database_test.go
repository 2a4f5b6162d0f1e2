package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"storyforge/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name    string
		config  config.DatabaseConfig
		want    string
		wantErr string
	}{
		{
			name:   "password and sslmode",
			config: config.DatabaseConfig{Host: "db", Port: "5432", User: "story", Password: "p@ss", Name: "storyforge", SSLMode: "disable"},
			want:   "postgres://story:p%40ss@db:5432/storyforge?sslmode=disable",
		},
		{
			name:   "no password",
			config: config.DatabaseConfig{Host: "db", Port: "5432", User: "story", Name: "storyforge", SSLMode: "require"},
			want:   "postgres://story@db:5432/storyforge?sslmode=require",
		},
		{
			name:   "no sslmode",
			config: config.DatabaseConfig{Host: "db", Port: "5432", User: "story", Name: "storyforge"},
			want:   "postgres://story@db:5432/storyforge",
		},
		{
			name:    "missing host",
			config:  config.DatabaseConfig{Port: "5432", User: "story", Name: "storyforge"},
			wantErr: "missing host",
		},
		{
			name:    "several missing fields are all reported",
			config:  config.DatabaseConfig{Host: "db"},
			wantErr: "missing port, user, name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPostgresDSN(tt.config)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// stubOpen makes NewPostgres use db and disables ping backoff.
func stubOpen(t *testing.T, db *sql.DB, openErr error) {
	t.Helper()
	origOpen, origBackoff := sqlOpen, pingBackoff
	sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
		if openErr != nil {
			return nil, openErr
		}
		return db, nil
	}
	pingBackoff = 0
	t.Cleanup(func() {
		sqlOpen, pingBackoff = origOpen, origBackoff
	})
}

var validConf = config.DatabaseConfig{
	Host:               "db",
	Port:               "5432",
	User:               "story",
	Password:           "pass",
	Name:               "storyforge",
	MaxOpenConns:       10,
	MaxIdleConns:       5,
	ConnMaxLifetimeSec: 300,
}

func TestNewPostgres(t *testing.T) {
	t.Run("ready on first ping", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)

		mock.ExpectPing()

		got, err := NewPostgres(context.Background(), validConf)
		require.NoError(t, err)
		assert.Same(t, db, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ready after retries", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectPing()

		got, err := NewPostgres(context.Background(), validConf)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives up after all attempts", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		for i := 0; i < pingAttempts; i++ {
			mock.ExpectPing().WillReturnError(errors.New("ping failed"))
		}

		got, err := NewPostgres(context.Background(), validConf)
		assert.ErrorContains(t, err, "db ping: ping failed")
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sql open error", func(t *testing.T) {
		stubOpen(t, nil, errors.New("open error"))

		got, err := NewPostgres(context.Background(), validConf)
		assert.ErrorContains(t, err, "sql open: open error")
		assert.Nil(t, got)
	})

	t.Run("invalid config", func(t *testing.T) {
		got, err := NewPostgres(context.Background(), config.DatabaseConfig{})
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}

func TestOpenHistory(t *testing.T) {
	log := zap.NewNop()

	t.Run("disabled without host", func(t *testing.T) {
		db, err := OpenHistory(context.Background(), config.DatabaseConfig{}, log)
		assert.NoError(t, err)
		assert.Nil(t, db)
	})

	t.Run("connects and migrates", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)

		mock.ExpectPing()
		mock.ExpectQuery(`SELECT to_regclass`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		got, err := OpenHistory(context.Background(), validConf, log)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("migration failure closes the pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		mock.ExpectPing()
		mock.ExpectQuery(`SELECT to_regclass`).WillReturnError(errors.New("permission denied"))
		mock.ExpectClose()

		got, err := OpenHistory(context.Background(), validConf, log)
		assert.ErrorContains(t, err, "failed to check sentinel table")
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
