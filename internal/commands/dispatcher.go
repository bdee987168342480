package commands

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/louisbranch/tribunal/internal/court"
	"github.com/louisbranch/tribunal/internal/prison"
	"github.com/louisbranch/tribunal/internal/telemetry"
)

// responder is the slice of discordgo.Session the dispatcher needs to
// answer interactions.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// handleTimeout bounds one interaction's engine work. Discord abandons the
// interaction token after 3 seconds without a response.
const handleTimeout = 3 * time.Second

// Dispatcher routes gateway events to the engines and renders replies.
type Dispatcher struct {
	court   *court.Engine
	prison  *prison.Prison
	emitter *telemetry.Emitter
	logf    func(format string, args ...any)
}

// NewDispatcher creates a dispatcher over the two engines.
func NewDispatcher(courtEngine *court.Engine, prisonEngine *prison.Prison, emitter *telemetry.Emitter) *Dispatcher {
	return &Dispatcher{
		court:   courtEngine,
		prison:  prisonEngine,
		emitter: emitter,
		logf:    log.Printf,
	}
}

// HandleInteraction answers one slash-command interaction. Registered as a
// discordgo handler for InteractionCreate.
func (d *Dispatcher) HandleInteraction(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	reply := d.dispatch(ctx, interaction)
	if err := d.respond(session, interaction, reply); err != nil {
		d.logf("commands: respond to %s in guild %s: %v", interaction.ApplicationCommandData().Name, interaction.GuildID, err)
	}
}

// HandleMemberAdd resynchronizes the prison role for rejoining members.
// Registered as a discordgo handler for GuildMemberAdd.
func (d *Dispatcher) HandleMemberAdd(_ *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.User == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	d.prison.HandleMemberJoin(ctx, event.GuildID, event.User.ID)
}

func (d *Dispatcher) dispatch(ctx context.Context, interaction *discordgo.InteractionCreate) string {
	if interaction.GuildID == "" || interaction.Member == nil || interaction.Member.User == nil {
		return replyGuildOnly
	}
	data := interaction.ApplicationCommandData()
	variant, ok := parseCommand(data)
	if !ok {
		d.logf("commands: unknown command %q in guild %s", data.Name, interaction.GuildID)
		return replyGeneric
	}
	options := optionMap(data.Options[0].Options)

	var reply string
	var err error
	switch variant {
	case commandLawsuitCreate:
		reply, err = d.lawsuitCreate(ctx, interaction, options)
	case commandLawsuitSetCategory:
		err = d.court.SetCourtCategory(ctx, interaction.GuildID, optionString(options, "category"))
		reply = replyCategorySet
	case commandLawsuitClose:
		reply, err = d.lawsuitClose(ctx, interaction, options)
	case commandLawsuitClear:
		err = d.court.Clear(ctx, interaction.GuildID)
		reply = replyCleared
	case commandPrisonSetRole:
		err = d.prison.SetRole(ctx, interaction.GuildID, optionString(options, "role"))
		reply = replyRoleSet
	case commandPrisonArrest:
		memberID := optionString(options, "member")
		err = d.prison.Arrest(ctx, interaction.GuildID, memberID)
		reply = replyArrested(memberID)
	case commandPrisonRelease:
		memberID := optionString(options, "member")
		err = d.prison.Release(ctx, interaction.GuildID, memberID)
		reply = replyReleased(memberID)
	}
	if err != nil {
		return d.renderError(ctx, interaction.GuildID, variant, err)
	}
	return reply
}

func (d *Dispatcher) lawsuitCreate(ctx context.Context, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	input := court.CreateInput{
		Plaintiff:       optionString(options, "plaintiff"),
		Accused:         optionString(options, "accused"),
		Judge:           optionString(options, "judge"),
		Reason:          optionString(options, "reason"),
		PlaintiffLawyer: optionString(options, "plaintiff_lawyer"),
		AccusedLawyer:   optionString(options, "accused_lawyer"),
	}
	input.PlaintiffName = resolvedUsername(interaction, input.Plaintiff)
	input.AccusedName = resolvedUsername(interaction, input.Accused)

	lawsuit, err := d.court.Create(ctx, interaction.GuildID, input)
	if err != nil {
		return "", err
	}
	return replyLawsuitCreated(lawsuit), nil
}

func (d *Dispatcher) lawsuitClose(ctx context.Context, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	override := interaction.Member.Permissions&discordgo.PermissionManageServer != 0
	lawsuit, err := d.court.RuleVerdict(ctx, interaction.GuildID, interaction.ChannelID,
		interaction.Member.User.ID, override, optionString(options, "verdict"))
	if err != nil {
		return "", err
	}
	return replyLawsuitClosed(lawsuit), nil
}

// renderError turns an operation failure into the channel reply. Outcomes
// the requester can act on get their fixed string; everything else gets the
// generic apology and goes to telemetry.
func (d *Dispatcher) renderError(ctx context.Context, guildID string, variant command, err error) string {
	reply, operational := replyForError(err)
	if operational {
		d.logf("commands: %s in guild %s: %v", variant, guildID, err)
		d.emitter.Emit(ctx, telemetry.Event{
			Severity: telemetry.SeverityError,
			GuildID:  guildID,
			Kind:     "command_failure",
			Message:  string(variant) + ": " + err.Error(),
		})
	}
	return reply
}

func (d *Dispatcher) respond(session responder, interaction *discordgo.InteractionCreate, content string) error {
	return session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, option := range options {
		out[option.Name] = option
	}
	return out
}

// optionString reads a user, role, channel, or string option as its id or
// value. Missing optional options read as empty.
func optionString(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	option, ok := options[name]
	if !ok {
		return ""
	}
	if value, ok := option.Value.(string); ok {
		return value
	}
	return ""
}

// resolvedUsername finds the display name for a user id in the
// interaction's resolved data. Falls back to empty; callers label with the
// raw id then.
func resolvedUsername(interaction *discordgo.InteractionCreate, userID string) string {
	resolved := interaction.ApplicationCommandData().Resolved
	if resolved == nil {
		return ""
	}
	if user, ok := resolved.Users[userID]; ok && user != nil {
		return user.Username
	}
	return ""
}
