package database

import (
	"regexp"
	"testing"

	"estatehub/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector(&config.Config{DBDriver: "postgres", DBHost: "localhost"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestConnect_SQLiteMigrates(t *testing.T) {
	db, err := Connect(&config.Config{Env: "test", DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)

	for _, table := range []string{"properties", "messages", "users", "analytics"} {
		assert.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}
	assert.True(t, db.Migrator().HasColumn("properties", "dealer_name"))
	assert.True(t, db.Migrator().HasColumn("properties", "price_period"))
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.NoError(t, configurePool(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestInstallChangeTrigger_Postgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE FUNCTION notify_listing_change()")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, InstallChangeTrigger(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstallChangeTrigger_SQLiteNoop(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.NoError(t, InstallChangeTrigger(db))
}
