// services/activity_service_test.go
package services

import (
	"testing"

	"movie-club-system/models"
)

func TestActivityRecordAndRecent(t *testing.T) {
	db := testDB(t)
	activity := NewActivityService(db)

	activity.Record(sellerID, models.ActivityCasinoWin, "hit the jackpot", 430, "")
	activity.Record(sellerID, models.ActivityPackOpened, "opened Sci-fi Starter", 0, "ref-1")
	activity.Record(buyerID, models.ActivityMarketSale, "sold a card", 150, "ref-2")

	events, err := activity.Recent(sellerID, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (other users filtered out)", len(events))
	}
	for _, ev := range events {
		if ev.UserID != sellerID {
			t.Errorf("event for %s leaked into the feed", ev.UserID)
		}
		if ev.DeliveredAt != nil {
			t.Error("fresh event already marked delivered")
		}
	}

	// Out-of-range limits fall back to the default instead of failing.
	if _, err := activity.Recent(sellerID, -1); err != nil {
		t.Errorf("recent with negative limit: %v", err)
	}
}
