// Package commands defines the slash-command surface: the closed set of
// command variants, their Discord schema and registration, the reply
// catalog, and the dispatcher that routes interactions to the engines.
package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// command identifies one routable operation. The set is closed; the
// dispatcher rejects anything outside it.
type command string

const (
	commandLawsuitCreate      command = "lawsuit create"
	commandLawsuitSetCategory command = "lawsuit set_category"
	commandLawsuitClose       command = "lawsuit close"
	commandLawsuitClear       command = "lawsuit clear"
	commandPrisonSetRole      command = "prison set_role"
	commandPrisonArrest       command = "prison arrest"
	commandPrisonRelease      command = "prison release"
)

// parseCommand maps interaction data onto a command variant. The second
// return is false for anything outside the closed set.
func parseCommand(data discordgo.ApplicationCommandInteractionData) (command, bool) {
	if len(data.Options) == 0 || data.Options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", false
	}
	c := command(data.Name + " " + data.Options[0].Name)
	switch c {
	case commandLawsuitCreate, commandLawsuitSetCategory, commandLawsuitClose,
		commandLawsuitClear, commandPrisonSetRole, commandPrisonArrest,
		commandPrisonRelease:
		return c, true
	}
	return "", false
}

var manageGuild = int64(discordgo.PermissionManageServer)

// definitions is the full slash-command schema. Both top-level commands are
// guild-only and gated on the Manage Server permission.
var definitions = []*discordgo.ApplicationCommand{
	{
		Name:                     "lawsuit",
		Description:              "Manage lawsuits",
		DefaultMemberPermissions: &manageGuild,
		Contexts:                 &[]discordgo.InteractionContextType{discordgo.InteractionContextGuild},
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "File a new lawsuit and open its court room",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "plaintiff", Description: "Who is suing", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "accused", Description: "Who is being sued", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "judge", Description: "Who presides over the case", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "What the lawsuit is about", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "plaintiff_lawyer", Description: "Lawyer for the plaintiff"},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "accused_lawyer", Description: "Lawyer for the accused"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set_category",
				Description: "Set the category court rooms are created under",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "category",
						Description:  "The category channel",
						Required:     true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "close",
				Description: "Close the lawsuit in this court room with a verdict",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "verdict", Description: "The verdict", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "clear",
				Description: "Delete all lawsuits, court rooms, and settings for this server",
			},
		},
	},
	{
		Name:                     "prison",
		Description:              "Manage the prison",
		DefaultMemberPermissions: &manageGuild,
		Contexts:                 &[]discordgo.InteractionContextType{discordgo.InteractionContextGuild},
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set_role",
				Description: "Set the role granted to imprisoned members",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "The prison role", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "arrest",
				Description: "Send a member to prison",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Who to imprison", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "release",
				Description: "Release a member from prison",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Who to release", Required: true},
				},
			},
		},
	},
}

// Register overwrites the bot's slash commands. With a dev guild configured
// the commands land there (instant propagation for development); global
// registration is opt-in since it takes up to an hour to roll out.
func Register(session *discordgo.Session, appID, devGuildID string, setGlobal bool) error {
	if devGuildID != "" {
		if _, err := session.ApplicationCommandBulkOverwrite(appID, devGuildID, definitions); err != nil {
			return fmt.Errorf("register commands in dev guild %s: %w", devGuildID, err)
		}
	}
	if setGlobal {
		if _, err := session.ApplicationCommandBulkOverwrite(appID, "", definitions); err != nil {
			return fmt.Errorf("register global commands: %w", err)
		}
	}
	return nil
}
