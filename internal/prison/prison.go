// Package prison keeps the guild's prison role membership in sync with the
// persisted prison entries. The entry set is the durable truth; the Discord
// role is reconciled against it, notably when members rejoin.
package prison

import (
	"context"
	"fmt"

	"github.com/louisbranch/tribunal/internal/discord"
	apperrors "github.com/louisbranch/tribunal/internal/platform/errors"
	"github.com/louisbranch/tribunal/internal/storage"
	"github.com/louisbranch/tribunal/internal/telemetry"
)

// ErrPrisonRoleNotSet indicates the guild has no prison role configured.
var ErrPrisonRoleNotSet = apperrors.New(apperrors.CodePrisonRoleNotSet, "prison role is not configured")

// Prison runs the role-restriction operations. Stateless across calls.
type Prison struct {
	store   storage.Store
	client  discord.Client
	emitter *telemetry.Emitter
}

// New creates a prison synchronizer.
func New(store storage.Store, client discord.Client, emitter *telemetry.Emitter) *Prison {
	return &Prison{store: store, client: client, emitter: emitter}
}

// SetRole stores the role granted to imprisoned members.
func (p *Prison) SetRole(ctx context.Context, guildID, roleID string) error {
	if err := p.store.SetPrisonRole(ctx, guildID, roleID); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "persist prison role", err)
	}
	return nil
}

// Arrest records the member as imprisoned and grants the prison role. The
// entry is persisted before the grant; when the grant fails the entry
// remains and the role is reasserted on the member's next join or arrest.
func (p *Prison) Arrest(ctx context.Context, guildID, memberID string) error {
	state, err := p.store.FindOrInsertGuild(ctx, guildID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "load guild state", err)
	}
	if state.PrisonRoleID == "" {
		return ErrPrisonRoleNotSet
	}

	if err := p.store.AddPrisonEntry(ctx, guildID, memberID); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "persist prison entry", err)
	}
	member, err := p.client.FetchMember(ctx, guildID, memberID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDiscordUnavailable, "fetch member", err)
	}
	if hasRole(member, state.PrisonRoleID) {
		return nil
	}
	if err := p.client.GrantRole(ctx, guildID, memberID, state.PrisonRoleID); err != nil {
		return apperrors.Wrap(apperrors.CodeDiscordUnavailable, "grant prison role", err)
	}
	return nil
}

func hasRole(member discord.Member, roleID string) bool {
	for _, role := range member.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}

// Release removes the member's prison entry and revokes the role. A failed
// revoke after the removal is accepted drift; the member is no longer
// imprisoned on record and the role is not re-granted on rejoin.
func (p *Prison) Release(ctx context.Context, guildID, memberID string) error {
	state, err := p.store.FindOrInsertGuild(ctx, guildID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "load guild state", err)
	}
	if state.PrisonRoleID == "" {
		return ErrPrisonRoleNotSet
	}

	if err := p.store.RemovePrisonEntry(ctx, guildID, memberID); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "remove prison entry", err)
	}
	if err := p.client.RevokeRole(ctx, guildID, memberID, state.PrisonRoleID); err != nil {
		return apperrors.Wrap(apperrors.CodeDiscordUnavailable, "revoke prison role", err)
	}
	return nil
}

// HandleMemberJoin re-grants the prison role to a rejoining member who is
// still on record as imprisoned. Failures never reach the member; they are
// reported through telemetry and healed on a later join.
func (p *Prison) HandleMemberJoin(ctx context.Context, guildID, memberID string) {
	state, err := p.store.FindOrInsertGuild(ctx, guildID)
	if err != nil {
		p.emit(ctx, guildID, "prison_resync", fmt.Sprintf("load guild state for member %s: %v", memberID, err))
		return
	}
	if state.PrisonRoleID == "" || !state.Imprisoned(memberID) {
		return
	}
	if err := p.client.GrantRole(ctx, guildID, memberID, state.PrisonRoleID); err != nil {
		p.emit(ctx, guildID, "prison_resync", fmt.Sprintf("re-grant role to member %s: %v", memberID, err))
	}
}

func (p *Prison) emit(ctx context.Context, guildID, kind, message string) {
	p.emitter.Emit(ctx, telemetry.Event{
		Severity: telemetry.SeverityWarn,
		GuildID:  guildID,
		Kind:     kind,
		Message:  message,
	})
}
