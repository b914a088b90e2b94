// Package counting implements the windowed deduplication policy used for the
// signature counter and referral attribution. Duplicate suppression here is
// best-effort, not exact: the windows approximate "same real-world signing
// action" in the absence of a provider-issued idempotency key.
package counting

import (
	"strings"
	"time"

	"github.com/firmaya/api/pkg/database"
)

const (
	// Lookback bounds how far back FindRecentIncrement scans for a
	// previously counted increment.
	Lookback = 10 * time.Second

	// MatchWindow is the maximum distance between a candidate increment and
	// a recorded one for the two to be considered the same signature.
	MatchWindow = 5 * time.Second

	// BucketSize is the interval events are floored to when estimating
	// distinct signatures.
	BucketSize = 5 * time.Second
)

// FindRecentIncrement scans recent counter_increment events for one carrying
// the same referral attribution within MatchWindow of now. If found, the
// candidate is a duplicate and the previously recorded total is returned.
// Absent attribution matches absent attribution.
func FindRecentIncrement(events []database.Event, refBy *string, now time.Time) (int, bool) {
	for _, e := range events {
		pl, ok := database.ParseIncrementPayload(e)
		if !ok {
			continue
		}

		if !sameRef(pl.RefBy, refBy) {
			continue
		}

		ts := pl.Timestamp
		if ts.IsZero() {
			ts = e.CreatedAt
		}

		d := now.Sub(ts)
		if d < 0 {
			d = -d
		}

		if d <= MatchWindow {
			return pl.NewCount, true
		}
	}

	return 0, false
}

// EstimateDistinctSignatures counts signatures attributable to refCode by
// flooring each matching event's timestamp to a BucketSize boundary and
// counting distinct buckets. The result is independent of event order.
func EstimateDistinctSignatures(events []database.Event, refCode string) int {
	needle := `"refBy":"` + refCode + `"`
	buckets := make(map[int64]struct{})

	for _, e := range events {
		if e.Payload == nil || !strings.Contains(*e.Payload, needle) {
			continue
		}

		ts := e.CreatedAt
		if pl, ok := database.ParseIncrementPayload(e); ok && !pl.Timestamp.IsZero() {
			ts = pl.Timestamp
		}

		bucket := ts.UnixMilli() / BucketSize.Milliseconds() * BucketSize.Milliseconds()
		buckets[bucket] = struct{}{}
	}

	return len(buckets)
}

func sameRef(a, b *string) bool {
	av, bv := "", ""
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}

	return av == bv
}
