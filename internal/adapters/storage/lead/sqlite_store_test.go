package lead

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/lead"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

func sampleLead(id string) domain.Lead {
	return domain.Lead{
		ID:        id,
		GymID:     "g1",
		Name:      "Alex Prospect",
		Email:     "alex@example.com",
		Source:    domain.SourceWalkIn,
		Status:    domain.StatusNew,
		CreatedAt: testNow,
	}
}

func TestSaveAndGetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := sampleLead("l1")
	want.Phone = "021 555 0101"
	want.Note = "asked about evening classes"
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetByID(ctx, "l1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want wrapped ErrNoRows", err)
	}
}

func TestSave_UpsertsAdvancedLead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	l := sampleLead("l1")
	if err := store.Save(ctx, l); err != nil {
		t.Fatalf("save: %v", err)
	}

	later := testNow.Add(2 * time.Hour)
	if err := l.Advance(domain.StatusContacted, later); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := store.Save(ctx, l); err != nil {
		t.Fatalf("save update: %v", err)
	}

	got, err := store.GetByID(ctx, "l1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusContacted {
		t.Errorf("status = %s, want contacted", got.Status)
	}
	if !got.ContactedAt.Equal(later) {
		t.Errorf("contacted_at = %v, want %v", got.ContactedAt, later)
	}
	if !got.ClosedAt.IsZero() {
		t.Errorf("closed_at = %v, want zero", got.ClosedAt)
	}
}

func TestList_FiltersAndOrdersNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := sampleLead("l1")
	newer := sampleLead("l2")
	newer.Name = "Billie Curious"
	newer.Email = "billie@example.com"
	newer.Source = domain.SourceWebsite
	newer.CreatedAt = testNow.Add(time.Hour)
	otherGym := sampleLead("l3")
	otherGym.GymID = "g2"
	otherGym.Email = "other@example.com"

	for _, l := range []domain.Lead{older, newer, otherGym} {
		if err := store.Save(ctx, l); err != nil {
			t.Fatalf("save %s: %v", l.ID, err)
		}
	}

	got, err := store.List(ctx, ListFilter{GymID: "g1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "l2" || got[1].ID != "l1" {
		t.Errorf("order = [%s %s], want [l2 l1]", got[0].ID, got[1].ID)
	}

	got, err = store.List(ctx, ListFilter{GymID: "g1", Source: domain.SourceWebsite})
	if err != nil {
		t.Fatalf("list by source: %v", err)
	}
	if len(got) != 1 || got[0].ID != "l2" {
		t.Errorf("source filter returned %d rows", len(got))
	}

	got, err = store.List(ctx, ListFilter{GymID: "g1", Search: "billie"})
	if err != nil {
		t.Fatalf("list by search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "l2" {
		t.Errorf("search filter returned %d rows", len(got))
	}
}

func TestCountByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, status := range []string{domain.StatusNew, domain.StatusNew, domain.StatusTrial} {
		l := sampleLead("l" + string(rune('1'+i)))
		l.Email = l.ID + "@example.com"
		l.Status = status
		if err := store.Save(ctx, l); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	counts, err := store.CountByStatus(ctx, "g1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[domain.StatusNew] != 2 || counts[domain.StatusTrial] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if _, ok := counts[domain.StatusLost]; ok {
		t.Error("lost should be absent when no leads are lost")
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleLead("l1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "l1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, "l1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want wrapped ErrNoRows", err)
	}
}
