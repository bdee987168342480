// Package court implements the lawsuit lifecycle: case creation with room
// provisioning, verdict adjudication, and guild-wide clearing.
package court

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/tribunal/internal/discord"
	apperrors "github.com/louisbranch/tribunal/internal/platform/errors"
	"github.com/louisbranch/tribunal/internal/platform/id"
	"github.com/louisbranch/tribunal/internal/storage"
	"github.com/louisbranch/tribunal/internal/telemetry"
)

var (
	// ErrCourtCategoryNotSet indicates the guild has no court category configured.
	ErrCourtCategoryNotSet = apperrors.New(apperrors.CodeCourtCategoryNotSet, "court category is not configured")
	// ErrNoActiveLawsuit indicates the room hosts no verdict-less case.
	ErrNoActiveLawsuit = apperrors.New(apperrors.CodeNoActiveLawsuit, "no active lawsuit in this room")
	// ErrNotJudge indicates the requester may not rule on this case.
	ErrNotJudge = apperrors.New(apperrors.CodeNotJudge, "requester is not the judge of this case")
	// ErrNotACategory indicates the configured channel is not a category.
	ErrNotACategory = apperrors.New(apperrors.CodeNotACategory, "channel is not a category")
)

// Engine runs lawsuit operations. It holds no state across calls: every
// operation re-reads the persisted aggregate, mutates, and persists.
type Engine struct {
	store   storage.Store
	client  discord.Client
	emitter *telemetry.Emitter
	newID   func() (string, error)
	clock   func() time.Time
}

// NewEngine creates a lawsuit engine.
func NewEngine(store storage.Store, client discord.Client, emitter *telemetry.Emitter) *Engine {
	return &Engine{
		store:   store,
		client:  client,
		emitter: emitter,
		newID:   id.NewID,
		clock:   time.Now,
	}
}

// CreateInput carries the parties of a new lawsuit. Names are used only for
// the room label; the IDs are authoritative.
type CreateInput struct {
	Plaintiff       string
	Accused         string
	Judge           string
	PlaintiffLawyer string
	AccusedLawyer   string
	Reason          string
	PlaintiffName   string
	AccusedName     string
}

// Create provisions a court room and records a new active lawsuit.
//
// The room is created on Discord before the case is persisted. When the
// persist fails the channel is left standing and the operation reports
// failure; no compensating deletion is attempted.
func (e *Engine) Create(ctx context.Context, guildID string, input CreateInput) (storage.Lawsuit, error) {
	state, err := e.store.FindOrInsertGuild(ctx, guildID)
	if err != nil {
		return storage.Lawsuit{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "load guild state", err)
	}
	if state.CourtCategoryID == "" {
		return storage.Lawsuit{}, ErrCourtCategoryNotSet
	}

	caseID, err := e.newID()
	if err != nil {
		return storage.Lawsuit{}, fmt.Errorf("generate case id: %w", err)
	}

	roomID, err := e.client.CreateTextChannel(ctx, guildID, state.CourtCategoryID, roomName(input))
	if err != nil {
		return storage.Lawsuit{}, apperrors.Wrap(apperrors.CodeDiscordUnavailable, "provision court room", err)
	}

	now := e.clock().UTC()
	lawsuit := storage.Lawsuit{
		ID:              caseID,
		Plaintiff:       input.Plaintiff,
		Accused:         input.Accused,
		Judge:           input.Judge,
		PlaintiffLawyer: input.PlaintiffLawyer,
		AccusedLawyer:   input.AccusedLawyer,
		Reason:          input.Reason,
		CourtRoomID:     roomID,
		CreatedAt:       now,
	}
	if err := e.store.AddLawsuit(ctx, guildID, lawsuit); err != nil {
		return storage.Lawsuit{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "persist lawsuit", err)
	}
	if err := e.store.AddCourtRoom(ctx, guildID, storage.CourtRoom{ChannelID: roomID, CreatedAt: now}); err != nil {
		return storage.Lawsuit{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "persist court room", err)
	}
	return lawsuit, nil
}

// RuleVerdict closes the active case bound to the room. Only the case's
// judge may rule, unless the requester carries the administrative override.
// The verdict transition is monotonic; a second ruling on the same room
// reports ErrNoActiveLawsuit.
func (e *Engine) RuleVerdict(ctx context.Context, guildID, roomID, requesterID string, override bool, verdict string) (storage.Lawsuit, error) {
	state, err := e.store.FindOrInsertGuild(ctx, guildID)
	if err != nil {
		return storage.Lawsuit{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "load guild state", err)
	}

	lawsuit, ok := state.ActiveLawsuitInRoom(roomID)
	if !ok {
		return storage.Lawsuit{}, ErrNoActiveLawsuit
	}
	if requesterID != lawsuit.Judge && !override {
		return storage.Lawsuit{}, ErrNotJudge
	}

	if err := e.store.SetVerdict(ctx, guildID, lawsuit.ID, verdict); err != nil {
		// A concurrent ruling can adjudicate the case between the read and
		// the scoped update; that surfaces as not-found here.
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Lawsuit{}, ErrNoActiveLawsuit
		}
		return storage.Lawsuit{}, apperrors.Wrap(apperrors.CodeStorageUnavailable, "record verdict", err)
	}
	lawsuit.Verdict = verdict

	// Tearing the room down is best-effort; the persisted verdict is what
	// closes the case.
	if err := e.client.DeleteChannel(ctx, roomID); err != nil {
		e.emitter.Emit(ctx, telemetry.Event{
			Severity: telemetry.SeverityWarn,
			GuildID:  guildID,
			Kind:     "court_room_teardown",
			Message:  fmt.Sprintf("delete room %s: %v", roomID, err),
		})
	}
	return lawsuit, nil
}

// SetCourtCategory validates and stores the category all court rooms are
// created under.
func (e *Engine) SetCourtCategory(ctx context.Context, guildID, channelID string) error {
	isCategory, err := e.client.IsCategory(ctx, channelID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDiscordUnavailable, "inspect channel", err)
	}
	if !isCategory {
		return ErrNotACategory
	}
	if err := e.store.SetCourtCategory(ctx, guildID, channelID); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "persist court category", err)
	}
	return nil
}

// Clear wipes the entire guild aggregate: configuration, lawsuits, rooms,
// and prison entries. Known court rooms are deleted best-effort first.
func (e *Engine) Clear(ctx context.Context, guildID string) error {
	state, err := e.store.FindOrInsertGuild(ctx, guildID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "load guild state", err)
	}
	for _, room := range state.CourtRooms {
		if err := e.client.DeleteChannel(ctx, room.ChannelID); err != nil {
			e.emitter.Emit(ctx, telemetry.Event{
				Severity: telemetry.SeverityWarn,
				GuildID:  guildID,
				Kind:     "court_room_teardown",
				Message:  fmt.Sprintf("delete room %s: %v", room.ChannelID, err),
			})
		}
	}
	if err := e.store.DeleteGuild(ctx, guildID); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "delete guild state", err)
	}
	return nil
}

func roomName(input CreateInput) string {
	plaintiff := input.PlaintiffName
	if plaintiff == "" {
		plaintiff = input.Plaintiff
	}
	accused := input.AccusedName
	if accused == "" {
		accused = input.Accused
	}
	return slug(fmt.Sprintf("court-%s-vs-%s", plaintiff, accused))
}

// slug squashes the label into the character set Discord allows for
// channel names.
func slug(value string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
