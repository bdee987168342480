package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Session implements Client on top of a discordgo session.
type Session struct {
	session *discordgo.Session
}

// NewSession wraps an open discordgo session.
func NewSession(session *discordgo.Session) *Session {
	return &Session{session: session}
}

// GrantRole adds a role to a guild member.
func (s *Session) GrantRole(ctx context.Context, guildID, memberID, roleID string) error {
	if err := s.session.GuildMemberRoleAdd(guildID, memberID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("grant role %s to member %s: %w", roleID, memberID, err)
	}
	return nil
}

// RevokeRole removes a role from a guild member.
func (s *Session) RevokeRole(ctx context.Context, guildID, memberID, roleID string) error {
	if err := s.session.GuildMemberRoleRemove(guildID, memberID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("revoke role %s from member %s: %w", roleID, memberID, err)
	}
	return nil
}

// CreateTextChannel creates a text channel under the given category.
func (s *Session) CreateTextChannel(ctx context.Context, guildID, parentID, name string) (string, error) {
	channel, err := s.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: parentID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create channel %q in guild %s: %w", name, guildID, err)
	}
	return channel.ID, nil
}

// DeleteChannel deletes a channel.
func (s *Session) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := s.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}

// FetchMember loads a guild member.
func (s *Session) FetchMember(ctx context.Context, guildID, memberID string) (Member, error) {
	member, err := s.session.GuildMember(guildID, memberID, discordgo.WithContext(ctx))
	if err != nil {
		return Member{}, fmt.Errorf("fetch member %s in guild %s: %w", memberID, guildID, err)
	}
	return Member{UserID: member.User.ID, Roles: member.Roles}, nil
}

// IsCategory reports whether the channel is a category container.
func (s *Session) IsCategory(ctx context.Context, channelID string) (bool, error) {
	// State answers without a round trip when the channel is cached.
	if channel, err := s.session.State.Channel(channelID); err == nil {
		return channel.Type == discordgo.ChannelTypeGuildCategory, nil
	}
	channel, err := s.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	return channel.Type == discordgo.ChannelTypeGuildCategory, nil
}

// SendMessage posts a plain message to a channel.
func (s *Session) SendMessage(ctx context.Context, channelID, content string) error {
	if _, err := s.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message to channel %s: %w", channelID, err)
	}
	return nil
}
