// Package modlog renders and fans out moderation audit entries. Every
// completed action produces one Entry, which each configured Emitter
// receives; a failing emitter never blocks the action itself.
package modlog

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/logger"
	"github.com/wardenlabs/warden/pkg/sanitize"
)

// Action identifies what a moderation entry records.
type Action string

const (
	ActionBan           Action = "ban"
	ActionUnban         Action = "unban"
	ActionMute          Action = "mute"
	ActionUnmute        Action = "unmute"
	ActionWarningAdd    Action = "warning_add"
	ActionWarningRemove Action = "warning_remove"
	ActionNoteAdd       Action = "note_add"
	ActionNoteRemove    Action = "note_remove"
)

// Entry is one audit record. TargetTag and ModeratorTag are display names
// resolved at action time; the ids are authoritative.
type Entry struct {
	ID           string
	GuildID      string
	Action       Action
	TargetID     string
	TargetTag    string
	ModeratorID  string
	ModeratorTag string
	Reason       string
	Duration     time.Duration
	CaseID       int64
	CreatedAt    time.Time
}

// Emitter delivers one audit entry somewhere. Implementations must be safe
// for concurrent use.
type Emitter interface {
	Emit(e Entry)
}

// Fanout sends each entry to every emitter in order.
type Fanout []Emitter

func (f Fanout) Emit(e Entry) {
	for _, em := range f {
		em.Emit(e)
	}
}

const (
	colorBan    = 0xED4245
	colorWarn   = 0xFAA81A
	colorMute   = 0x747F8D
	colorNote   = 0xFEE75C
	colorRevert = 0x57F287
)

var actionTitles = map[Action]string{
	ActionBan:           "🔨 Member Banned",
	ActionUnban:         "🔓 Member Unbanned",
	ActionMute:          "🔇 Member Muted",
	ActionUnmute:        "🔊 Member Unmuted",
	ActionWarningAdd:    "⚠️ Warning Issued",
	ActionWarningRemove: "✅ Warning Removed",
	ActionNoteAdd:       "📝 Note Added",
	ActionNoteRemove:    "🗑️ Note Removed",
}

var actionColors = map[Action]int{
	ActionBan:           colorBan,
	ActionUnban:         colorRevert,
	ActionMute:          colorMute,
	ActionUnmute:        colorRevert,
	ActionWarningAdd:    colorWarn,
	ActionWarningRemove: colorRevert,
	ActionNoteAdd:       colorNote,
	ActionNoteRemove:    colorRevert,
}

// Embed renders the entry as a Discord embed in the moderation log style.
func Embed(e Entry) *discordgo.MessageEmbed {
	title, ok := actionTitles[e.Action]
	if !ok {
		title = "Moderation Action"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Member", Value: fmt.Sprintf("%s (%s)", e.TargetTag, e.TargetID), Inline: true},
		{Name: "Moderator", Value: fmt.Sprintf("%s (%s)", e.ModeratorTag, e.ModeratorID), Inline: true},
	}
	if e.Reason != "" {
		// Entries carry the log-sanitized reason; the channel gets the
		// display form so mentions stay inert in the embed.
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: sanitize.ForDisplay(e.Reason)})
	}
	if e.Duration > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Duration", Value: FormatDuration(e.Duration), Inline: true})
	}
	if e.CaseID > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Case ID", Value: fmt.Sprintf("%d", e.CaseID), Inline: true})
	}

	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     actionColors[e.Action],
		Fields:    fields,
		Timestamp: ts.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Warden Moderation"},
	}
}

// FormatDuration renders a duration in whole minutes, matching the wording
// used in mute confirmations.
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%d minute(s)", int(d.Minutes()))
}

// ChannelSender is the slice of the Discord session the channel emitter
// needs. *discordgo.Session satisfies it.
type ChannelSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelEmitter posts entries as embeds to a fixed Discord channel.
type ChannelEmitter struct {
	Sender    ChannelSender
	ChannelID string
}

func (c *ChannelEmitter) Emit(e Entry) {
	if c.ChannelID == "" {
		return
	}
	if _, err := c.Sender.ChannelMessageSendEmbed(c.ChannelID, Embed(e)); err != nil {
		logger.Warn(fmt.Sprintf("Failed to post moderation log entry %s to channel %s: %v", e.ID, c.ChannelID, err), "ModLog")
	}
}

// LogEmitter mirrors entries into the application log.
type LogEmitter struct{}

func (LogEmitter) Emit(e Entry) {
	logger.Info(fmt.Sprintf("%s guild=%s target=%s moderator=%s case=%d reason=%q",
		e.Action, e.GuildID, e.TargetID, e.ModeratorID, e.CaseID, e.Reason), "ModLog")
}
