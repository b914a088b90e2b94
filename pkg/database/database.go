package database

import (
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

var db *gorm.DB
var initOnce sync.Once

func InitDatabase(d *gorm.DB) {
	initOnce.Do(func() {
		d.AutoMigrate(&Signer{}, &Counter{}, &Event{}, &Referral{})
		db = d
	})
}

func GetDatabase() *gorm.DB {
	return db
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
// Postgres reports these as SQLSTATE 23505; the sqlite driver used in tests
// reports them as a "UNIQUE constraint failed" message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var e *pgconn.PgError
	if errors.As(err, &e) {
		return e.Code == "23505"
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
