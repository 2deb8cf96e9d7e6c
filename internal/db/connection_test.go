package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "DB_AUTO_MIGRATE"} {
		t.Setenv(key, "")
	}
	cfg := NewConfig()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "wealthwise", cfg.Name)
	assert.False(t, cfg.AutoMigrate)
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5433", User: "u", Password: "p", Name: "ww", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=ww sslmode=require", cfg.DSN())
}

func TestConnectSQLite_MigratesAndReportsHealth(t *testing.T) {
	database, err := ConnectSQLite(":memory:")
	require.NoError(t, err)

	require.NoError(t, database.Health(context.Background()))
	for _, table := range []string{"users", "portfolios", "positions", "price_observations", "networth_snapshots"} {
		assert.True(t, database.Migrator().HasTable(table), table)
	}

	require.NoError(t, database.Close())
	assert.Error(t, database.Health(context.Background()))
}
