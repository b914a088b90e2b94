package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/firmaya/api/pkg/database"
	"github.com/firmaya/api/pkg/zapsign"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&database.Signer{},
		&database.Counter{},
		&database.Event{},
		&database.Referral{},
	))

	return db
}

func testRouter(t *testing.T, db *gorm.DB, zapClient *zapsign.Client, webhookSecret string) http.Handler {
	t.Helper()

	if zapClient == nil {
		zapClient = zapsign.NewClient("test-key", "test-template")
	}

	return New(db, zapClient, webhookSecret, "")
}

func strPtr(s string) *string {
	return &s
}
