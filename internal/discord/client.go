// Package discord is the boundary to the Discord API. Engines depend on the
// Client interface so tests can substitute a fake; the Session type adapts
// bwmarrin/discordgo behind it.
package discord

import "context"

// Member is the subset of guild membership state the engines need.
type Member struct {
	UserID string
	Roles  []string
}

// Client exposes the Discord operations the moderation engines perform.
// Every call may fail with a transport or authorization error; callers treat
// all of them uniformly as external-operation failures.
type Client interface {
	GrantRole(ctx context.Context, guildID, memberID, roleID string) error
	RevokeRole(ctx context.Context, guildID, memberID, roleID string) error
	CreateTextChannel(ctx context.Context, guildID, parentID, name string) (string, error)
	DeleteChannel(ctx context.Context, channelID string) error
	FetchMember(ctx context.Context, guildID, memberID string) (Member, error)
	IsCategory(ctx context.Context, channelID string) (bool, error)
	SendMessage(ctx context.Context, channelID, content string) error
}
