package court

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/louisbranch/tribunal/internal/platform/errors"
	"github.com/louisbranch/tribunal/internal/storage/memory"
	"github.com/louisbranch/tribunal/internal/testkit/discordfakes"
)

func newTestEngine(t *testing.T) (*Engine, *memory.Store, *discordfakes.Client) {
	t.Helper()
	store := memory.NewStore()
	client := discordfakes.NewClient()
	return NewEngine(store, client, nil), store, client
}

func configureCategory(t *testing.T, engine *Engine, client *discordfakes.Client, guildID, categoryID string) {
	t.Helper()
	client.Categories[categoryID] = true
	if err := engine.SetCourtCategory(context.Background(), guildID, categoryID); err != nil {
		t.Fatalf("SetCourtCategory: %v", err)
	}
}

func TestCreateWithoutCategory(t *testing.T) {
	engine, _, client := newTestEngine(t)

	_, err := engine.Create(context.Background(), "guild-1", CreateInput{
		Plaintiff: "user-p",
		Accused:   "user-a",
		Judge:     "user-j",
	})
	if !errors.Is(err, ErrCourtCategoryNotSet) {
		t.Fatalf("expected ErrCourtCategoryNotSet, got %v", err)
	}
	if len(client.Created) != 0 {
		t.Fatalf("expected no channels created, got %d", len(client.Created))
	}
}

func TestCreateProvisionsRoomAndPersists(t *testing.T) {
	engine, store, client := newTestEngine(t)
	configureCategory(t, engine, client, "guild-1", "cat-1")

	lawsuit, err := engine.Create(context.Background(), "guild-1", CreateInput{
		Plaintiff:     "user-p",
		Accused:       "user-a",
		Judge:         "user-j",
		Reason:        "stolen horse",
		PlaintiffName: "Alice",
		AccusedName:   "Bob",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lawsuit.ID == "" {
		t.Fatal("expected a case id")
	}
	if lawsuit.Verdict != "" {
		t.Fatalf("expected no verdict on a new case, got %q", lawsuit.Verdict)
	}

	if len(client.Created) != 1 {
		t.Fatalf("expected 1 channel created, got %d", len(client.Created))
	}
	created := client.Created[0]
	if created.ParentID != "cat-1" {
		t.Fatalf("expected parent cat-1, got %q", created.ParentID)
	}
	if created.Name != "court-alice-vs-bob" {
		t.Fatalf("unexpected room name %q", created.Name)
	}
	if lawsuit.CourtRoomID != created.ID {
		t.Fatalf("lawsuit bound to room %q, created %q", lawsuit.CourtRoomID, created.ID)
	}

	state, err := store.FindOrInsertGuild(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("FindOrInsertGuild: %v", err)
	}
	if len(state.Lawsuits) != 1 || len(state.CourtRooms) != 1 {
		t.Fatalf("expected 1 lawsuit and 1 room, got %d and %d", len(state.Lawsuits), len(state.CourtRooms))
	}
	if state.CourtRooms[0].ChannelID != created.ID {
		t.Fatalf("persisted room %q, created %q", state.CourtRooms[0].ChannelID, created.ID)
	}
}

func TestCreateDiscordFailure(t *testing.T) {
	engine, store, client := newTestEngine(t)
	configureCategory(t, engine, client, "guild-1", "cat-1")
	client.CreateErr = errors.New("rate limited")

	_, err := engine.Create(context.Background(), "guild-1", CreateInput{
		Plaintiff: "user-p",
		Accused:   "user-a",
		Judge:     "user-j",
	})
	if !apperrors.IsCode(err, apperrors.CodeDiscordUnavailable) {
		t.Fatalf("expected CodeDiscordUnavailable, got %v", err)
	}

	state, err := store.FindOrInsertGuild(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("FindOrInsertGuild: %v", err)
	}
	if len(state.Lawsuits) != 0 {
		t.Fatalf("expected no persisted lawsuit after discord failure, got %d", len(state.Lawsuits))
	}
}

func TestRuleVerdictByJudge(t *testing.T) {
	engine, store, client := newTestEngine(t)
	configureCategory(t, engine, client, "guild-1", "cat-1")

	created, err := engine.Create(context.Background(), "guild-1", CreateInput{
		Plaintiff: "user-p",
		Accused:   "user-a",
		Judge:     "user-j",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ruled, err := engine.RuleVerdict(context.Background(), "guild-1", created.CourtRoomID, "user-j", false, "guilty")
	if err != nil {
		t.Fatalf("RuleVerdict: %v", err)
	}
	if ruled.Verdict != "guilty" {
		t.Fatalf("expected verdict guilty, got %q", ruled.Verdict)
	}
	if len(client.Deleted) != 1 || client.Deleted[0] != created.CourtRoomID {
		t.Fatalf("expected room %q deleted, got %v", created.CourtRoomID, client.Deleted)
	}

	state, err := store.FindOrInsertGuild(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("FindOrInsertGuild: %v", err)
	}
	if state.Lawsuits[0].Verdict != "guilty" {
		t.Fatalf("expected persisted verdict guilty, got %q", state.Lawsuits[0].Verdict)
	}
}

func TestRuleVerdictRejectsNonJudge(t *testing.T) {
	engine, _, client := newTestEngine(t)
	configureCategory(t, engine, client, "guild-1", "cat-1")

	created, err := engine.Create(context.Background(), "guild-1", CreateInput{
		Plaintiff: "user-p",
		Accused:   "user-a",
		Judge:     "user-j",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = engine.RuleVerdict(context.Background(), "guild-1", created.CourtRoomID, "user-p", false, "guilty")
	if !errors.Is(err, ErrNotJudge) {
		t.Fatalf("expected ErrNotJudge, got %v", err)
	}
	if len(client.Deleted) != 0 {
		t.Fatalf("expected no rooms deleted, got %v", client.Deleted)
	}
}

func TestRuleVerdictOverride(t *testing.T) {
	engine, _, client := newTestEngine(t)
	configureCategory(t, engine, client, "guild-1", "cat-1")

	created, err := engine.Create(context.Background(), "guild-1", CreateInput{
		Plaintiff: "user-p",
		Accused:   "user-a",
		Judge:     "user-j",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ruled, err := engine.RuleVerdict(context.Background(), "guild-1", created.CourtRoomID, "user-admin", true, "dismissed")
	if err != nil {
		t.Fatalf("RuleVerdict with override: %v", err)
	}
	if ruled.Verdict != "dismissed" {
		t.Fatalf("expected verdict dismissed, got %q", ruled.Verdict)
	}
}

func TestRuleVerdictIsMonotonic(t *testing.T) {
	engine, _, client := newTestEngine(t)
	configureCategory(t, engine, client, "guild-1", "cat-1")

	created, err := engine.Create(context.Background(), "guild-1", CreateInput{
		Plaintiff: "user-p",
		Accused:   "user-a",
		Judge:     "user-j",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := engine.RuleVerdict(context.Background(), "guild-1", created.CourtRoomID, "user-j", false, "guilty"); err != nil {
		t.Fatalf("first RuleVerdict: %v", err)
	}
	_, err = engine.RuleVerdict(context.Background(), "guild-1", created.CourtRoomID, "user-j", false, "innocent")
	if !errors.Is(err, ErrNoActiveLawsuit) {
		t.Fatalf("expected ErrNoActiveLawsuit on second ruling, got %v", err)
	}
}

func TestRuleVerdictUnknownRoom(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.RuleVerdict(context.Background(), "guild-1", "room-x", "user-j", false, "guilty")
	if !errors.Is(err, ErrNoActiveLawsuit) {
		t.Fatalf("expected ErrNoActiveLawsuit, got %v", err)
	}
}

func TestRuleVerdictSurvivesTeardownFailure(t *testing.T) {
	engine, store, client := newTestEngine(t)
	configureCategory(t, engine, client, "guild-1", "cat-1")

	created, err := engine.Create(context.Background(), "guild-1", CreateInput{
		Plaintiff: "user-p",
		Accused:   "user-a",
		Judge:     "user-j",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	client.DeleteErr = errors.New("missing permission")

	ruled, err := engine.RuleVerdict(context.Background(), "guild-1", created.CourtRoomID, "user-j", false, "guilty")
	if err != nil {
		t.Fatalf("RuleVerdict: %v", err)
	}
	if ruled.Verdict != "guilty" {
		t.Fatalf("expected verdict guilty, got %q", ruled.Verdict)
	}

	state, err := store.FindOrInsertGuild(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("FindOrInsertGuild: %v", err)
	}
	if state.Lawsuits[0].Verdict != "guilty" {
		t.Fatal("expected verdict persisted despite teardown failure")
	}
}

func TestSetCourtCategoryRejectsNonCategory(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	err := engine.SetCourtCategory(context.Background(), "guild-1", "text-channel")
	if !errors.Is(err, ErrNotACategory) {
		t.Fatalf("expected ErrNotACategory, got %v", err)
	}
}

func TestClearDeletesRoomsAndState(t *testing.T) {
	engine, store, client := newTestEngine(t)
	configureCategory(t, engine, client, "guild-1", "cat-1")

	first, err := engine.Create(context.Background(), "guild-1", CreateInput{Plaintiff: "p1", Accused: "a1", Judge: "j1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := engine.Create(context.Background(), "guild-1", CreateInput{Plaintiff: "p2", Accused: "a2", Judge: "j2"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := engine.Clear(context.Background(), "guild-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(client.Deleted) != 2 {
		t.Fatalf("expected 2 rooms deleted, got %v", client.Deleted)
	}
	for i, want := range []string{first.CourtRoomID, second.CourtRoomID} {
		if client.Deleted[i] != want {
			t.Fatalf("deleted[%d] = %q, want %q", i, client.Deleted[i], want)
		}
	}

	state, err := store.FindOrInsertGuild(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("FindOrInsertGuild: %v", err)
	}
	if state.CourtCategoryID != "" || len(state.Lawsuits) != 0 || len(state.CourtRooms) != 0 {
		t.Fatalf("expected empty aggregate after clear, got %+v", state)
	}
}

func TestClearProceedsPastTeardownFailure(t *testing.T) {
	engine, store, client := newTestEngine(t)
	configureCategory(t, engine, client, "guild-1", "cat-1")

	if _, err := engine.Create(context.Background(), "guild-1", CreateInput{Plaintiff: "p", Accused: "a", Judge: "j"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	client.DeleteErr = errors.New("missing permission")

	if err := engine.Clear(context.Background(), "guild-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	state, err := store.FindOrInsertGuild(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("FindOrInsertGuild: %v", err)
	}
	if len(state.Lawsuits) != 0 {
		t.Fatal("expected aggregate wiped despite teardown failure")
	}
}

func TestRoomNameFallsBackToIDs(t *testing.T) {
	name := roomName(CreateInput{Plaintiff: "123", Accused: "456"})
	if name != "court-123-vs-456" {
		t.Fatalf("unexpected room name %q", name)
	}
}

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"court-Alice-vs-Bob", "court-alice-vs-bob"},
		{"court-Ms. O'Hara-vs-Dr Jekyll", "court-ms-o-hara-vs-dr-jekyll"},
		{"court-!!-vs-??", "court-vs"},
	}
	for _, tc := range cases {
		if got := slug(tc.in); got != tc.want {
			t.Errorf("slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
