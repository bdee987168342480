package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/tribunal/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// Lawsuit is one dispute case inside a guild. Parties, judge, and reason are
// immutable after creation; the verdict transitions from empty to set exactly
// once and is never cleared.
type Lawsuit struct {
	ID              string    `bson:"id"`
	Plaintiff       string    `bson:"plaintiff"`
	Accused         string    `bson:"accused"`
	Judge           string    `bson:"judge"`
	PlaintiffLawyer string    `bson:"plaintiff_lawyer,omitempty"`
	AccusedLawyer   string    `bson:"accused_lawyer,omitempty"`
	Reason          string    `bson:"reason"`
	Verdict         string    `bson:"verdict,omitempty"`
	CourtRoomID     string    `bson:"court_room_id"`
	CreatedAt       time.Time `bson:"created_at"`
}

// Active reports whether the lawsuit is still awaiting a verdict.
func (l Lawsuit) Active() bool {
	return l.Verdict == ""
}

// CourtRoom is one text channel provisioned for a single lawsuit.
type CourtRoom struct {
	ChannelID string    `bson:"channel_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// GuildState is the per-guild aggregate. It is the authoritative record;
// Discord-side channel and role state drifts and is reconciled against it.
type GuildState struct {
	GuildID         string      `bson:"guild_id"`
	PrisonRoleID    string      `bson:"prison_role_id,omitempty"`
	CourtCategoryID string      `bson:"court_category_id,omitempty"`
	Lawsuits        []Lawsuit   `bson:"lawsuits"`
	CourtRooms      []CourtRoom `bson:"court_rooms"`
	PrisonEntries   []string    `bson:"prison_entries"`
}

// ActiveLawsuitInRoom returns the unique verdict-less lawsuit bound to the
// room, or false when the room hosts no active case.
func (g GuildState) ActiveLawsuitInRoom(roomID string) (Lawsuit, bool) {
	for _, lawsuit := range g.Lawsuits {
		if lawsuit.CourtRoomID == roomID && lawsuit.Active() {
			return lawsuit, true
		}
	}
	return Lawsuit{}, false
}

// Imprisoned reports whether the member has a prison entry.
func (g GuildState) Imprisoned(memberID string) bool {
	for _, entry := range g.PrisonEntries {
		if entry == memberID {
			return true
		}
	}
	return false
}

// Store persists per-guild aggregates. All mutations are field-level atomic
// updates scoped by guild id (and case id for SetVerdict) so concurrent
// commands on the same guild do not clobber each other's unrelated fields.
type Store interface {
	// FindOrInsertGuild returns the existing aggregate or atomically creates
	// a default-empty one. Concurrent calls for the same guild id yield
	// exactly one persisted aggregate.
	FindOrInsertGuild(ctx context.Context, guildID string) (GuildState, error)

	SetPrisonRole(ctx context.Context, guildID, roleID string) error
	SetCourtCategory(ctx context.Context, guildID, categoryID string) error

	AddLawsuit(ctx context.Context, guildID string, lawsuit Lawsuit) error
	// SetVerdict records the verdict for an active lawsuit. It returns
	// ErrNotFound when the lawsuit does not exist or is already adjudicated,
	// keeping the verdict transition monotonic.
	SetVerdict(ctx context.Context, guildID, lawsuitID, verdict string) error
	AddCourtRoom(ctx context.Context, guildID string, room CourtRoom) error

	AddPrisonEntry(ctx context.Context, guildID, memberID string) error
	RemovePrisonEntry(ctx context.Context, guildID, memberID string) error
	HasPrisonEntry(ctx context.Context, guildID, memberID string) (bool, error)

	// DeleteGuild hard-clears the entire aggregate.
	DeleteGuild(ctx context.Context, guildID string) error
}
