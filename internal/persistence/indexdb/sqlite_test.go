package indexdb

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func row(slot string, tick uint64, at time.Time) SlotRow {
	return SlotRow{
		Slot:      slot,
		WorldID:   "w1",
		Path:      "/data/worlds/w1/snapshots/" + slot + ".snap.zst",
		Tick:      tick,
		Seed:      1337,
		Chunks:    49,
		Blocks:    9000,
		CreatedAt: at,
	}
}

func TestRecordSave_RoundTrip(t *testing.T) {
	idx := openTestIndex(t)
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	if err := idx.RecordSave(row("slot-1", 100, at)); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := idx.Lookup("w1", "slot-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Tick != 100 || got.Chunks != 49 || got.Blocks != 9000 || !got.CreatedAt.Equal(at) {
		t.Fatalf("row: %+v", got)
	}
}

func TestRecordSave_SameSlotReplaces(t *testing.T) {
	idx := openTestIndex(t)
	at := time.Now().UTC()

	if err := idx.RecordSave(row("slot-1", 100, at)); err != nil {
		t.Fatal(err)
	}
	if err := idx.RecordSave(row("slot-1", 250, at.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	got, err := idx.Lookup("w1", "slot-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Tick != 250 {
		t.Fatalf("tick = %d, want the replacing save", got.Tick)
	}

	slots, err := idx.Slots("w1")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("slots = %d, want 1", len(slots))
	}
}

func TestLatest_PicksNewestSave(t *testing.T) {
	idx := openTestIndex(t)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	if err := idx.RecordSave(row("morning", 100, base)); err != nil {
		t.Fatal(err)
	}
	if err := idx.RecordSave(row("evening", 90, base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	// Latest is by save time, not tick: loading an old save and saving
	// again makes that the resume point.
	got, err := idx.Latest("w1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Slot != "evening" {
		t.Fatalf("latest slot = %q", got.Slot)
	}
}

func TestLookup_MissingSlot(t *testing.T) {
	idx := openTestIndex(t)
	if _, err := idx.Lookup("w1", "nope"); !errors.Is(err, ErrNoSlot) {
		t.Fatalf("err = %v, want ErrNoSlot", err)
	}
	if _, err := idx.Latest("w1"); !errors.Is(err, ErrNoSlot) {
		t.Fatalf("latest on empty index: err = %v, want ErrNoSlot", err)
	}
}

func TestSlots_ScopedToWorld(t *testing.T) {
	idx := openTestIndex(t)
	at := time.Now().UTC()

	if err := idx.RecordSave(row("slot-1", 1, at)); err != nil {
		t.Fatal(err)
	}
	other := row("slot-2", 2, at)
	other.WorldID = "w2"
	if err := idx.RecordSave(other); err != nil {
		t.Fatal(err)
	}

	slots, err := idx.Slots("w1")
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 || slots[0].Slot != "slot-1" {
		t.Fatalf("slots: %+v", slots)
	}
}
