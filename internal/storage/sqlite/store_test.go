package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/tribunal/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "tribunal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestFindOrInsertGuildRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	state, err := store.FindOrInsertGuild(ctx, "guild-1")
	if err != nil {
		t.Fatalf("find or insert: %v", err)
	}
	if state.GuildID != "guild-1" || state.PrisonRoleID != "" || state.CourtCategoryID != "" {
		t.Fatalf("unexpected fresh state: %+v", state)
	}

	if err := store.SetPrisonRole(ctx, "guild-1", "role-1"); err != nil {
		t.Fatalf("set prison role: %v", err)
	}
	if err := store.SetCourtCategory(ctx, "guild-1", "cat-1"); err != nil {
		t.Fatalf("set court category: %v", err)
	}

	state, err = store.FindOrInsertGuild(ctx, "guild-1")
	if err != nil {
		t.Fatalf("reload guild: %v", err)
	}
	if state.PrisonRoleID != "role-1" {
		t.Fatalf("prison role = %q, want role-1", state.PrisonRoleID)
	}
	if state.CourtCategoryID != "cat-1" {
		t.Fatalf("court category = %q, want cat-1", state.CourtCategoryID)
	}
}

func TestSetFieldUpsertsMissingGuild(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Configuring a guild that was never loaded must still persist.
	if err := store.SetPrisonRole(ctx, "guild-2", "role-9"); err != nil {
		t.Fatalf("set prison role: %v", err)
	}
	state, err := store.FindOrInsertGuild(ctx, "guild-2")
	if err != nil {
		t.Fatalf("find guild: %v", err)
	}
	if state.PrisonRoleID != "role-9" {
		t.Fatalf("prison role = %q, want role-9", state.PrisonRoleID)
	}
}

func TestLawsuitLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	lawsuit := storage.Lawsuit{
		ID:              "case-1",
		Plaintiff:       "alice",
		Accused:         "bob",
		Judge:           "carol",
		PlaintiffLawyer: "dan",
		Reason:          "noise",
		CourtRoomID:     "room-1",
		CreatedAt:       created,
	}
	if err := store.AddLawsuit(ctx, "guild-1", lawsuit); err != nil {
		t.Fatalf("add lawsuit: %v", err)
	}
	if err := store.AddCourtRoom(ctx, "guild-1", storage.CourtRoom{ChannelID: "room-1", CreatedAt: created}); err != nil {
		t.Fatalf("add court room: %v", err)
	}

	state, err := store.FindOrInsertGuild(ctx, "guild-1")
	if err != nil {
		t.Fatalf("load guild: %v", err)
	}
	if len(state.Lawsuits) != 1 {
		t.Fatalf("lawsuits = %d, want 1", len(state.Lawsuits))
	}
	got := state.Lawsuits[0]
	if got.ID != "case-1" || got.Plaintiff != "alice" || got.PlaintiffLawyer != "dan" || got.AccusedLawyer != "" {
		t.Fatalf("unexpected lawsuit: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, created)
	}
	if !got.Active() {
		t.Fatal("expected lawsuit to be active before verdict")
	}
	active, ok := state.ActiveLawsuitInRoom("room-1")
	if !ok || active.ID != "case-1" {
		t.Fatalf("active lawsuit in room = %+v ok=%v", active, ok)
	}

	if err := store.SetVerdict(ctx, "guild-1", "case-1", "guilty"); err != nil {
		t.Fatalf("set verdict: %v", err)
	}
	if err := store.SetVerdict(ctx, "guild-1", "case-1", "acquitted"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second verdict err = %v, want ErrNotFound", err)
	}

	state, _ = store.FindOrInsertGuild(ctx, "guild-1")
	if state.Lawsuits[0].Verdict != "guilty" {
		t.Fatalf("verdict = %q, want guilty", state.Lawsuits[0].Verdict)
	}
	if _, ok := state.ActiveLawsuitInRoom("room-1"); ok {
		t.Fatal("adjudicated case must no longer be active in its room")
	}
}

func TestLawsuitOrderPreserved(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"case-a", "case-b", "case-c"} {
		lawsuit := storage.Lawsuit{ID: id, CourtRoomID: "room-" + id, Reason: "r"}
		if err := store.AddLawsuit(ctx, "guild-1", lawsuit); err != nil {
			t.Fatalf("add lawsuit %s: %v", id, err)
		}
	}
	state, err := store.FindOrInsertGuild(ctx, "guild-1")
	if err != nil {
		t.Fatalf("load guild: %v", err)
	}
	want := []string{"case-a", "case-b", "case-c"}
	for i, lawsuit := range state.Lawsuits {
		if lawsuit.ID != want[i] {
			t.Fatalf("lawsuit %d = %q, want %q", i, lawsuit.ID, want[i])
		}
	}
}

func TestPrisonEntries(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.AddPrisonEntry(ctx, "guild-1", "m-1"); err != nil {
			t.Fatalf("add prison entry attempt %d: %v", i+1, err)
		}
	}
	has, err := store.HasPrisonEntry(ctx, "guild-1", "m-1")
	if err != nil {
		t.Fatalf("has prison entry: %v", err)
	}
	if !has {
		t.Fatal("expected prison entry after arrest")
	}

	state, _ := store.FindOrInsertGuild(ctx, "guild-1")
	if len(state.PrisonEntries) != 1 {
		t.Fatalf("prison entries = %d, want 1", len(state.PrisonEntries))
	}

	if err := store.RemovePrisonEntry(ctx, "guild-1", "m-1"); err != nil {
		t.Fatalf("remove prison entry: %v", err)
	}
	has, _ = store.HasPrisonEntry(ctx, "guild-1", "m-1")
	if has {
		t.Fatal("expected entry gone after release")
	}
}

func TestDeleteGuildCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddLawsuit(ctx, "guild-1", storage.Lawsuit{ID: "case-1", CourtRoomID: "room-1"}); err != nil {
		t.Fatalf("add lawsuit: %v", err)
	}
	if err := store.AddCourtRoom(ctx, "guild-1", storage.CourtRoom{ChannelID: "room-1"}); err != nil {
		t.Fatalf("add court room: %v", err)
	}
	if err := store.AddPrisonEntry(ctx, "guild-1", "m-1"); err != nil {
		t.Fatalf("add prison entry: %v", err)
	}
	if err := store.SetCourtCategory(ctx, "guild-1", "cat-1"); err != nil {
		t.Fatalf("set court category: %v", err)
	}

	if err := store.DeleteGuild(ctx, "guild-1"); err != nil {
		t.Fatalf("delete guild: %v", err)
	}

	state, err := store.FindOrInsertGuild(ctx, "guild-1")
	if err != nil {
		t.Fatalf("find after delete: %v", err)
	}
	if state.CourtCategoryID != "" || len(state.Lawsuits) != 0 || len(state.CourtRooms) != 0 || len(state.PrisonEntries) != 0 {
		t.Fatalf("expected fresh aggregate after delete, got %+v", state)
	}
}
