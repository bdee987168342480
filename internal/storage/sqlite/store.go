// Package sqlite provides a SQLite-backed guild storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/louisbranch/tribunal/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/tribunal/internal/storage"
	"github.com/louisbranch/tribunal/internal/storage/sqlite/migrations"
)

// Store persists guild aggregates in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite guild store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ensureGuild(ctx context.Context, guildID string) error {
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO guilds (guild_id) VALUES (?) ON CONFLICT (guild_id) DO NOTHING`,
		guildID,
	)
	if err != nil {
		return fmt.Errorf("ensure guild %s: %w", guildID, err)
	}
	return nil
}

// FindOrInsertGuild returns the aggregate, creating an empty row when absent.
// The ON CONFLICT upsert keeps concurrent calls race-free.
func (s *Store) FindOrInsertGuild(ctx context.Context, guildID string) (storage.GuildState, error) {
	if err := ctx.Err(); err != nil {
		return storage.GuildState{}, err
	}
	if guildID == "" {
		return storage.GuildState{}, fmt.Errorf("guild id is required")
	}
	if err := s.ensureGuild(ctx, guildID); err != nil {
		return storage.GuildState{}, err
	}

	state := storage.GuildState{GuildID: guildID}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT prison_role_id, court_category_id FROM guilds WHERE guild_id = ?`,
		guildID,
	)
	if err := row.Scan(&state.PrisonRoleID, &state.CourtCategoryID); err != nil {
		return storage.GuildState{}, fmt.Errorf("load guild %s: %w", guildID, err)
	}

	lawsuits, err := s.loadLawsuits(ctx, guildID)
	if err != nil {
		return storage.GuildState{}, err
	}
	state.Lawsuits = lawsuits

	rooms, err := s.loadCourtRooms(ctx, guildID)
	if err != nil {
		return storage.GuildState{}, err
	}
	state.CourtRooms = rooms

	entries, err := s.loadPrisonEntries(ctx, guildID)
	if err != nil {
		return storage.GuildState{}, err
	}
	state.PrisonEntries = entries

	return state, nil
}

func (s *Store) loadLawsuits(ctx context.Context, guildID string) ([]storage.Lawsuit, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, plaintiff, accused, judge, plaintiff_lawyer, accused_lawyer,
		        reason, verdict, court_room_id, created_at
		   FROM lawsuits WHERE guild_id = ? ORDER BY rowid`,
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("load lawsuits for guild %s: %w", guildID, err)
	}
	defer func() { _ = rows.Close() }()

	var lawsuits []storage.Lawsuit
	for rows.Next() {
		var lawsuit storage.Lawsuit
		var createdAt int64
		if err := rows.Scan(
			&lawsuit.ID,
			&lawsuit.Plaintiff,
			&lawsuit.Accused,
			&lawsuit.Judge,
			&lawsuit.PlaintiffLawyer,
			&lawsuit.AccusedLawyer,
			&lawsuit.Reason,
			&lawsuit.Verdict,
			&lawsuit.CourtRoomID,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan lawsuit: %w", err)
		}
		lawsuit.CreatedAt = fromMillis(createdAt)
		lawsuits = append(lawsuits, lawsuit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lawsuits: %w", err)
	}
	return lawsuits, nil
}

func (s *Store) loadCourtRooms(ctx context.Context, guildID string) ([]storage.CourtRoom, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT channel_id, created_at FROM court_rooms WHERE guild_id = ? ORDER BY rowid`,
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("load court rooms for guild %s: %w", guildID, err)
	}
	defer func() { _ = rows.Close() }()

	var rooms []storage.CourtRoom
	for rows.Next() {
		var room storage.CourtRoom
		var createdAt int64
		if err := rows.Scan(&room.ChannelID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan court room: %w", err)
		}
		room.CreatedAt = fromMillis(createdAt)
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate court rooms: %w", err)
	}
	return rooms, nil
}

func (s *Store) loadPrisonEntries(ctx context.Context, guildID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT member_id FROM prison_entries WHERE guild_id = ? ORDER BY member_id`,
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("load prison entries for guild %s: %w", guildID, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []string
	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return nil, fmt.Errorf("scan prison entry: %w", err)
		}
		entries = append(entries, memberID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prison entries: %w", err)
	}
	return entries, nil
}

// SetPrisonRole updates the configured prison role.
func (s *Store) SetPrisonRole(ctx context.Context, guildID, roleID string) error {
	return s.setField(ctx, guildID, "prison_role_id", roleID)
}

// SetCourtCategory updates the configured court category.
func (s *Store) SetCourtCategory(ctx context.Context, guildID, categoryID string) error {
	return s.setField(ctx, guildID, "court_category_id", categoryID)
}

func (s *Store) setField(ctx context.Context, guildID, column, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	query := fmt.Sprintf(
		`INSERT INTO guilds (guild_id, %[1]s) VALUES (?, ?)
		 ON CONFLICT (guild_id) DO UPDATE SET %[1]s = excluded.%[1]s`,
		column,
	)
	if _, err := s.sqlDB.ExecContext(ctx, query, guildID, value); err != nil {
		return fmt.Errorf("set %s for guild %s: %w", column, guildID, err)
	}
	return nil
}

// AddLawsuit appends a lawsuit to the guild ledger.
func (s *Store) AddLawsuit(ctx context.Context, guildID string, lawsuit storage.Lawsuit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureGuild(ctx, guildID); err != nil {
		return err
	}
	createdAt := lawsuit.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO lawsuits (
		   id, guild_id, plaintiff, accused, judge,
		   plaintiff_lawyer, accused_lawyer, reason, verdict,
		   court_room_id, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lawsuit.ID,
		guildID,
		lawsuit.Plaintiff,
		lawsuit.Accused,
		lawsuit.Judge,
		lawsuit.PlaintiffLawyer,
		lawsuit.AccusedLawyer,
		lawsuit.Reason,
		lawsuit.Verdict,
		lawsuit.CourtRoomID,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("add lawsuit %s: %w", lawsuit.ID, err)
	}
	return nil
}

// SetVerdict records the verdict for an active lawsuit. The WHERE clause
// matches only a verdict-less row, keeping the transition monotonic.
func (s *Store) SetVerdict(ctx context.Context, guildID, lawsuitID, verdict string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE lawsuits SET verdict = ? WHERE guild_id = ? AND id = ? AND verdict = ''`,
		verdict,
		guildID,
		lawsuitID,
	)
	if err != nil {
		return fmt.Errorf("set verdict for lawsuit %s: %w", lawsuitID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set verdict rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddCourtRoom appends a court room to the guild aggregate.
func (s *Store) AddCourtRoom(ctx context.Context, guildID string, room storage.CourtRoom) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureGuild(ctx, guildID); err != nil {
		return err
	}
	createdAt := room.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO court_rooms (channel_id, guild_id, created_at) VALUES (?, ?, ?)`,
		room.ChannelID,
		guildID,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("add court room %s: %w", room.ChannelID, err)
	}
	return nil
}

// AddPrisonEntry records a member as imprisoned. Idempotent.
func (s *Store) AddPrisonEntry(ctx context.Context, guildID, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureGuild(ctx, guildID); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO prison_entries (guild_id, member_id) VALUES (?, ?)
		 ON CONFLICT (guild_id, member_id) DO NOTHING`,
		guildID,
		memberID,
	)
	if err != nil {
		return fmt.Errorf("add prison entry for member %s: %w", memberID, err)
	}
	return nil
}

// RemovePrisonEntry removes a member's prison entry.
func (s *Store) RemovePrisonEntry(ctx context.Context, guildID, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM prison_entries WHERE guild_id = ? AND member_id = ?`,
		guildID,
		memberID,
	)
	if err != nil {
		return fmt.Errorf("remove prison entry for member %s: %w", memberID, err)
	}
	return nil
}

// HasPrisonEntry reports whether the member is recorded as imprisoned.
func (s *Store) HasPrisonEntry(ctx context.Context, guildID, memberID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found int
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT 1 FROM prison_entries WHERE guild_id = ? AND member_id = ?`,
		guildID,
		memberID,
	)
	if err := row.Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("find prison entry for member %s: %w", memberID, err)
	}
	return true, nil
}

// DeleteGuild hard-clears the entire aggregate. Child rows cascade.
func (s *Store) DeleteGuild(ctx context.Context, guildID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM guilds WHERE guild_id = ?`, guildID); err != nil {
		return fmt.Errorf("delete guild %s: %w", guildID, err)
	}
	return nil
}
