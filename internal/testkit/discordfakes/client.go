// Package discordfakes provides an in-memory discord.Client fake for tests.
package discordfakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/tribunal/internal/discord"
)

// RoleChange records one grant or revoke call.
type RoleChange struct {
	GuildID  string
	MemberID string
	RoleID   string
}

// CreatedChannel records one channel provisioned through the fake.
type CreatedChannel struct {
	ID       string
	GuildID  string
	ParentID string
	Name     string
}

// Message records one message sent through the fake.
type Message struct {
	ChannelID string
	Content   string
}

// Client is a lightweight in-memory discord.Client fake. Zero value is
// usable; error fields make the corresponding operation fail.
type Client struct {
	mu sync.Mutex

	Granted  []RoleChange
	Revoked  []RoleChange
	Created  []CreatedChannel
	Deleted  []string
	Messages []Message

	// Members maps "guildID:memberID" to the member returned by FetchMember.
	Members map[string]discord.Member
	// Categories marks channel ids that report as categories.
	Categories map[string]bool

	GrantErr      error
	RevokeErr     error
	CreateErr     error
	DeleteErr     error
	FetchErr      error
	IsCategoryErr error
	SendErr       error

	nextChannel int
}

// NewClient constructs a fake with initialized lookup maps.
func NewClient() *Client {
	return &Client{
		Members:    make(map[string]discord.Member),
		Categories: make(map[string]bool),
	}
}

// AddMember registers a member for FetchMember lookups.
func (c *Client) AddMember(guildID string, member discord.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Members[guildID+":"+member.UserID] = member
}

func (c *Client) GrantRole(_ context.Context, guildID, memberID, roleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GrantErr != nil {
		return c.GrantErr
	}
	c.Granted = append(c.Granted, RoleChange{GuildID: guildID, MemberID: memberID, RoleID: roleID})
	return nil
}

func (c *Client) RevokeRole(_ context.Context, guildID, memberID, roleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.RevokeErr != nil {
		return c.RevokeErr
	}
	c.Revoked = append(c.Revoked, RoleChange{GuildID: guildID, MemberID: memberID, RoleID: roleID})
	return nil
}

func (c *Client) CreateTextChannel(_ context.Context, guildID, parentID, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CreateErr != nil {
		return "", c.CreateErr
	}
	c.nextChannel++
	id := fmt.Sprintf("channel-%d", c.nextChannel)
	c.Created = append(c.Created, CreatedChannel{ID: id, GuildID: guildID, ParentID: parentID, Name: name})
	return id, nil
}

func (c *Client) DeleteChannel(_ context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DeleteErr != nil {
		return c.DeleteErr
	}
	c.Deleted = append(c.Deleted, channelID)
	return nil
}

func (c *Client) FetchMember(_ context.Context, guildID, memberID string) (discord.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FetchErr != nil {
		return discord.Member{}, c.FetchErr
	}
	member, ok := c.Members[guildID+":"+memberID]
	if !ok {
		return discord.Member{}, fmt.Errorf("member %s not found in guild %s", memberID, guildID)
	}
	return member, nil
}

func (c *Client) IsCategory(_ context.Context, channelID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.IsCategoryErr != nil {
		return false, c.IsCategoryErr
	}
	return c.Categories[channelID], nil
}

func (c *Client) SendMessage(_ context.Context, channelID, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Messages = append(c.Messages, Message{ChannelID: channelID, Content: content})
	return nil
}
