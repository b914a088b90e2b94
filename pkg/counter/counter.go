// Package counter maintains the materialized signature total.
package counter

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/firmaya/api/pkg/counting"
	"github.com/firmaya/api/pkg/database"
	apierrors "github.com/firmaya/api/pkg/errors"
)

type Result struct {
	Count  int
	WasNew bool
}

// Get returns the current counter row, the one with the highest id, lazily
// creating a zero row when none exists yet.
func Get(db *gorm.DB) (database.Counter, error) {
	var c database.Counter

	err := db.Order("id desc").First(&c).Error
	if err == nil {
		return c, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Counter{}, storageErr(err)
	}

	c = database.Counter{Total: 0}
	if err := db.Create(&c).Error; err != nil {
		return database.Counter{}, storageErr(err)
	}

	return c, nil
}

// IncrementIfNew applies the deduplication policy and, for a genuinely new
// signature, raises the total by one and appends a counter_increment event
// describing the transition. For a duplicate it returns the previously
// recorded total without writing anything.
func IncrementIfNew(db *gorm.DB, refBy *string, now time.Time) (Result, error) {
	var recent []database.Event
	err := db.
		Where("type = ? AND created_at >= ?", database.EventCounterIncrement, now.Add(-counting.Lookback)).
		Order("id desc").
		Find(&recent).Error
	if err != nil {
		return Result{}, storageErr(err)
	}

	if count, dup := counting.FindRecentIncrement(recent, refBy, now); dup {
		return Result{Count: count, WasNew: false}, nil
	}

	var total int
	err = db.Transaction(func(tx *gorm.DB) error {
		c, err := Get(tx)
		if err != nil {
			return err
		}

		// Single atomic increment; the row is never read-then-written.
		res := tx.Model(&database.Counter{}).
			Where("id = ?", c.ID).
			Updates(map[string]interface{}{
				"total":      gorm.Expr("total + 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}

		if err := tx.First(&c, c.ID).Error; err != nil {
			return err
		}
		total = c.Total

		ev := database.NewIncrementEvent(total-1, total, refBy, now)
		return tx.Create(&ev).Error
	})
	if err != nil {
		return Result{}, storageErr(err)
	}

	return Result{Count: total, WasNew: true}, nil
}

func storageErr(err error) error {
	if errors.Is(err, apierrors.StorageUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %v", apierrors.StorageUnavailable, err)
}
