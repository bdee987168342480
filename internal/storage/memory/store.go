// Package memory provides an in-memory guild store for tests and dev runs.
package memory

import (
	"context"
	"sync"

	"github.com/louisbranch/tribunal/internal/storage"
)

// Store keeps guild aggregates in process memory. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	guilds map[string]storage.GuildState
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{guilds: make(map[string]storage.GuildState)}
}

func cloneState(state storage.GuildState) storage.GuildState {
	out := state
	out.Lawsuits = append([]storage.Lawsuit(nil), state.Lawsuits...)
	out.CourtRooms = append([]storage.CourtRoom(nil), state.CourtRooms...)
	out.PrisonEntries = append([]string(nil), state.PrisonEntries...)
	return out
}

func (s *Store) lockedState(guildID string) storage.GuildState {
	state, ok := s.guilds[guildID]
	if !ok {
		state = storage.GuildState{GuildID: guildID}
		s.guilds[guildID] = state
	}
	return state
}

// FindOrInsertGuild returns the aggregate, creating an empty one when absent.
func (s *Store) FindOrInsertGuild(ctx context.Context, guildID string) (storage.GuildState, error) {
	if err := ctx.Err(); err != nil {
		return storage.GuildState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.lockedState(guildID)), nil
}

// SetPrisonRole updates the configured prison role.
func (s *Store) SetPrisonRole(ctx context.Context, guildID, roleID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.lockedState(guildID)
	state.PrisonRoleID = roleID
	s.guilds[guildID] = state
	return nil
}

// SetCourtCategory updates the configured court category.
func (s *Store) SetCourtCategory(ctx context.Context, guildID, categoryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.lockedState(guildID)
	state.CourtCategoryID = categoryID
	s.guilds[guildID] = state
	return nil
}

// AddLawsuit appends a lawsuit to the guild ledger.
func (s *Store) AddLawsuit(ctx context.Context, guildID string, lawsuit storage.Lawsuit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.lockedState(guildID)
	state.Lawsuits = append(append([]storage.Lawsuit(nil), state.Lawsuits...), lawsuit)
	s.guilds[guildID] = state
	return nil
}

// SetVerdict records a verdict for an active lawsuit.
func (s *Store) SetVerdict(ctx context.Context, guildID, lawsuitID, verdict string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.lockedState(guildID)
	lawsuits := append([]storage.Lawsuit(nil), state.Lawsuits...)
	for i, lawsuit := range lawsuits {
		if lawsuit.ID == lawsuitID && lawsuit.Active() {
			lawsuits[i].Verdict = verdict
			state.Lawsuits = lawsuits
			s.guilds[guildID] = state
			return nil
		}
	}
	return storage.ErrNotFound
}

// AddCourtRoom appends a court room to the guild aggregate.
func (s *Store) AddCourtRoom(ctx context.Context, guildID string, room storage.CourtRoom) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.lockedState(guildID)
	state.CourtRooms = append(append([]storage.CourtRoom(nil), state.CourtRooms...), room)
	s.guilds[guildID] = state
	return nil
}

// AddPrisonEntry records a member as imprisoned. Idempotent.
func (s *Store) AddPrisonEntry(ctx context.Context, guildID, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.lockedState(guildID)
	if state.Imprisoned(memberID) {
		return nil
	}
	state.PrisonEntries = append(append([]string(nil), state.PrisonEntries...), memberID)
	s.guilds[guildID] = state
	return nil
}

// RemovePrisonEntry removes a member's prison entry. Removing an absent
// entry is a no-op.
func (s *Store) RemovePrisonEntry(ctx context.Context, guildID, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.lockedState(guildID)
	entries := make([]string, 0, len(state.PrisonEntries))
	for _, entry := range state.PrisonEntries {
		if entry != memberID {
			entries = append(entries, entry)
		}
	}
	state.PrisonEntries = entries
	s.guilds[guildID] = state
	return nil
}

// HasPrisonEntry reports whether the member is recorded as imprisoned.
func (s *Store) HasPrisonEntry(ctx context.Context, guildID, memberID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.guilds[guildID]
	if !ok {
		return false, nil
	}
	return state.Imprisoned(memberID), nil
}

// DeleteGuild removes the entire aggregate.
func (s *Store) DeleteGuild(ctx context.Context, guildID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guilds, guildID)
	return nil
}
