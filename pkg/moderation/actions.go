// Package moderation sequences the moderation actions: permission and target
// validation happen before any side effect, the platform effect before
// persistence, and an audit entry is emitted once everything else succeeded.
// Every path terminates in a user-facing reply; raw errors only reach logs.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wardenlabs/warden/pkg/logger"
	"github.com/wardenlabs/warden/pkg/modlog"
	"github.com/wardenlabs/warden/pkg/sanitize"
	"github.com/wardenlabs/warden/pkg/store"
	"github.com/wardenlabs/warden/pkg/validate"
)

const platformCallTimeout = 10 * time.Second

// Actions orchestrates moderation actions against explicit collaborators.
type Actions struct {
	Store    *store.Store
	Platform Platform
	Audit    modlog.Emitter
	Log      *logger.Logger
}

// New wires an orchestrator. A nil audit emitter falls back to the log
// emitter, a nil logger to the global one.
func New(st *store.Store, p Platform, audit modlog.Emitter, log *logger.Logger) *Actions {
	if audit == nil {
		audit = modlog.LogEmitter{}
	}
	if log == nil {
		log = logger.Get()
	}
	return &Actions{Store: st, Platform: p, Audit: audit, Log: log}
}

// Result is the user-facing outcome of an action. Ephemeral marks
// rejections and failures that only the acting moderator should see.
type Result struct {
	Content   string
	Ephemeral bool
}

func rejected(msg string) Result { return Result{Content: msg, Ephemeral: true} }
func success(msg string) Result { return Result{Content: msg} }

// Subject is the member an action targets, as resolved by the command layer.
// Rank is the target's highest role position, nil when the target is not a
// current guild member.
type Subject struct {
	UserID string
	Tag    string
	IsBot  bool
	Rank   *int
}

// Moderator is the acting staff member.
type Moderator struct {
	UserID string
	Tag    string
	Rank   *int
}

// Request carries the common inputs of a targeted action.
type Request struct {
	GuildID   string
	GuildName string
	Moderator Moderator
	Target    Subject
	Reason    string
}

// MuteRequest adds the requested duration in minutes.
type MuteRequest struct {
	Request
	Minutes int64
}

// UnbanRequest targets a raw user id; the user is no longer a member.
type UnbanRequest struct {
	GuildID   string
	GuildName string
	Moderator Moderator
	TargetID  string
	Reason    string
}

// RemoveRequest identifies a stored case to remove.
type RemoveRequest struct {
	GuildID   string
	GuildName string
	Moderator Moderator
	CaseID    int64
	Reason    string
}

// Ban bans the target. Bans persist no case; the audit trail is the only
// record. The target is DMed before the ban lands, while a DM is still
// deliverable.
func (a *Actions) Ban(ctx context.Context, r Request) Result {
	actionID := uuid.NewString()

	if ok, msg := validate.Target(targetCheck(r), "ban"); !ok {
		return rejected(msg)
	}

	displayReason := sanitize.ForDisplay(r.Reason)
	a.sendDM(ctx, actionID, r.Target.UserID, fmt.Sprintf(
		"You have been banned from %s for: %s If you believe this was a mistake, you can appeal by contacting the staff team.",
		sanitize.GuildName(r.GuildName), displayReason))

	if err := a.platformCall(ctx, func(c context.Context) error {
		return a.Platform.BanMember(c, r.GuildID, r.Target.UserID, sanitize.ForLogging(r.Reason))
	}); err != nil {
		a.Log.Error(fmt.Sprintf("Ban of %s in guild %s failed: %v (action %s)", r.Target.UserID, r.GuildID, err, actionID), "Moderation")
		return rejected("An unexpected error occurred while banning the user.")
	}

	a.emit(modlog.Entry{
		ID:           actionID,
		GuildID:      r.GuildID,
		Action:       modlog.ActionBan,
		TargetID:     r.Target.UserID,
		TargetTag:    sanitize.UserTag(r.Target.Tag),
		ModeratorID:  r.Moderator.UserID,
		ModeratorTag: sanitize.UserTag(r.Moderator.Tag),
		Reason:       sanitize.ForLogging(r.Reason),
	})

	return success(fmt.Sprintf("Banned %s for: %s", sanitize.UserTag(r.Target.Tag), displayReason))
}

// Unban lifts a ban on a raw user id. An unknown or malformed id and a
// user who is simply not banned are terminal replies, not errors.
func (a *Actions) Unban(ctx context.Context, r UnbanRequest) Result {
	actionID := uuid.NewString()

	if !validate.Snowflake(r.TargetID) {
		return rejected("Please provide a valid user ID.")
	}

	var banned *User
	err := a.platformCall(ctx, func(c context.Context) error {
		var ferr error
		banned, ferr = a.Platform.FetchBan(c, r.GuildID, r.TargetID)
		return ferr
	})
	if errors.Is(err, ErrNotFound) {
		return rejected(fmt.Sprintf("User ID %s is not banned.", r.TargetID))
	}
	if err != nil {
		a.Log.Error(fmt.Sprintf("Ban lookup for %s in guild %s failed: %v (action %s)", r.TargetID, r.GuildID, err, actionID), "Moderation")
		return rejected("An unexpected error occurred while unbanning the user.")
	}

	if err := a.platformCall(ctx, func(c context.Context) error {
		return a.Platform.UnbanMember(c, r.GuildID, r.TargetID, sanitize.ForLogging(r.Reason))
	}); err != nil {
		a.Log.Error(fmt.Sprintf("Unban of %s in guild %s failed: %v (action %s)", r.TargetID, r.GuildID, err, actionID), "Moderation")
		return rejected("An unexpected error occurred while unbanning the user.")
	}

	tag := sanitize.UserTag(banned.Tag)
	a.emit(modlog.Entry{
		ID:           actionID,
		GuildID:      r.GuildID,
		Action:       modlog.ActionUnban,
		TargetID:     r.TargetID,
		TargetTag:    tag,
		ModeratorID:  r.Moderator.UserID,
		ModeratorTag: sanitize.UserTag(r.Moderator.Tag),
		Reason:       sanitize.ForLogging(r.Reason),
	})

	return success(fmt.Sprintf("Unbanned %s for: %s", tag, sanitize.ForDisplay(r.Reason)))
}

// Mute times the target out and records an active mute case. The DM goes
// out before the timeout lands; the target must still be a guild member.
func (a *Actions) Mute(ctx context.Context, r MuteRequest) Result {
	actionID := uuid.NewString()

	if ok, msg := validate.Target(targetCheck(r.Request), "mute"); !ok {
		return rejected(msg)
	}
	if !validate.MuteDuration(r.Minutes) {
		return rejected(fmt.Sprintf("Duration must be between %d and %d minutes.", validate.MinMuteMinutes, validate.MaxMuteMinutes))
	}

	duration := time.Duration(r.Minutes) * time.Minute
	expires := time.Now().UTC().Add(duration)
	displayReason := sanitize.ForDisplay(r.Reason)

	a.sendDM(ctx, actionID, r.Target.UserID, fmt.Sprintf(
		"You have been muted in %s until <t:%d:F> for: %s",
		sanitize.GuildName(r.GuildName), expires.Unix(), displayReason))

	if res, ok := a.requireMember(ctx, actionID, r.GuildID, r.Target.UserID, "muting the user"); !ok {
		return res
	}

	if err := a.platformCall(ctx, func(c context.Context) error {
		return a.Platform.TimeoutMember(c, r.GuildID, r.Target.UserID, &expires, sanitize.ForLogging(r.Reason))
	}); err != nil {
		a.Log.Error(fmt.Sprintf("Timeout of %s in guild %s failed: %v (action %s)", r.Target.UserID, r.GuildID, err, actionID), "Moderation")
		return rejected("An unexpected error occurred while muting the user.")
	}

	c, err := a.persistCase(ctx, r.Request, func(pctx context.Context) (*store.Case, error) {
		return a.Store.CreateMute(pctx, r.GuildID, r.Target.UserID, r.Moderator.UserID, sanitize.ForStorage(r.Reason), duration)
	})
	if err != nil {
		a.Log.Error(fmt.Sprintf("Persisting mute for %s in guild %s failed: %v (action %s)", r.Target.UserID, r.GuildID, err, actionID), "Moderation")
		return rejected(store.UserMessage(err, "mute", "muting the user", 0))
	}

	a.emit(modlog.Entry{
		ID:           actionID,
		GuildID:      r.GuildID,
		Action:       modlog.ActionMute,
		TargetID:     r.Target.UserID,
		TargetTag:    sanitize.UserTag(r.Target.Tag),
		ModeratorID:  r.Moderator.UserID,
		ModeratorTag: sanitize.UserTag(r.Moderator.Tag),
		Reason:       sanitize.ForLogging(r.Reason),
		Duration:     duration,
		CaseID:       c.ID,
	})

	return success(fmt.Sprintf("Muted %s for %d minute(s) for: %s", sanitize.UserTag(r.Target.Tag), r.Minutes, displayReason))
}

// Unmute clears the target's timeout and deactivates every active mute for
// the pair. A target with no active mute still gets a success reply.
func (a *Actions) Unmute(ctx context.Context, r Request) Result {
	actionID := uuid.NewString()

	if ok, msg := validate.Target(targetCheck(r), "unmute"); !ok {
		return rejected(msg)
	}

	displayReason := sanitize.ForDisplay(r.Reason)
	a.sendDM(ctx, actionID, r.Target.UserID, fmt.Sprintf(
		"You have been unmuted in %s for: %s",
		sanitize.GuildName(r.GuildName), displayReason))

	if res, ok := a.requireMember(ctx, actionID, r.GuildID, r.Target.UserID, "unmuting the user"); !ok {
		return res
	}

	if err := a.platformCall(ctx, func(c context.Context) error {
		return a.Platform.TimeoutMember(c, r.GuildID, r.Target.UserID, nil, sanitize.ForLogging(r.Reason))
	}); err != nil {
		a.Log.Error(fmt.Sprintf("Clearing timeout of %s in guild %s failed: %v (action %s)", r.Target.UserID, r.GuildID, err, actionID), "Moderation")
		return rejected("An unexpected error occurred while unmuting the user.")
	}

	rows, err := a.Store.DeactivateActiveMutes(ctx, r.Target.UserID, r.GuildID)
	if err != nil {
		a.Log.Error(fmt.Sprintf("Deactivating mutes for %s in guild %s failed: %v (action %s)", r.Target.UserID, r.GuildID, err, actionID), "Moderation")
		return rejected(store.UserMessage(err, "mute", "unmuting the user", 0))
	}
	if rows == 0 {
		a.Log.Debug(fmt.Sprintf("Unmute of %s in guild %s had no active mute rows (action %s)", r.Target.UserID, r.GuildID, actionID), "Moderation")
	}

	a.emit(modlog.Entry{
		ID:           actionID,
		GuildID:      r.GuildID,
		Action:       modlog.ActionUnmute,
		TargetID:     r.Target.UserID,
		TargetTag:    sanitize.UserTag(r.Target.Tag),
		ModeratorID:  r.Moderator.UserID,
		ModeratorTag: sanitize.UserTag(r.Moderator.Tag),
		Reason:       sanitize.ForLogging(r.Reason),
	})

	return success(fmt.Sprintf("Unmuted %s for: %s", sanitize.UserTag(r.Target.Tag), displayReason))
}

// WarningAdd records a warning. Only self and bot targets are rejected;
// hierarchy is not checked for warnings. The DM goes out after the case is
// persisted, so the target is only notified of a warning that exists.
func (a *Actions) WarningAdd(ctx context.Context, r Request) Result {
	actionID := uuid.NewString()

	check := validate.TargetCheck{TargetID: r.Target.UserID, ActorID: r.Moderator.UserID, TargetIsBot: r.Target.IsBot}
	if ok, msg := validate.Target(check, "warn"); !ok {
		return rejected(msg)
	}

	displayReason := sanitize.ForDisplay(r.Reason)
	c, err := a.persistCase(ctx, r, func(pctx context.Context) (*store.Case, error) {
		return a.Store.CreateWarning(pctx, r.GuildID, r.Target.UserID, r.Moderator.UserID, sanitize.ForStorage(r.Reason))
	})
	if err != nil {
		a.Log.Error(fmt.Sprintf("Persisting warning for %s in guild %s failed: %v (action %s)", r.Target.UserID, r.GuildID, err, actionID), "Moderation")
		return rejected(store.UserMessage(err, "warning", "warning the user", 0))
	}

	a.sendDM(ctx, actionID, r.Target.UserID, fmt.Sprintf(
		"You have received a warning in %s for: %s If you have any questions, please contact the community manager.",
		sanitize.GuildName(r.GuildName), displayReason))

	a.emit(modlog.Entry{
		ID:           actionID,
		GuildID:      r.GuildID,
		Action:       modlog.ActionWarningAdd,
		TargetID:     r.Target.UserID,
		TargetTag:    sanitize.UserTag(r.Target.Tag),
		ModeratorID:  r.Moderator.UserID,
		ModeratorTag: sanitize.UserTag(r.Moderator.Tag),
		Reason:       sanitize.ForLogging(r.Reason),
		CaseID:       c.ID,
	})

	return success(fmt.Sprintf("Warning added for %s (ID: %d) for: %s", sanitize.UserTag(r.Target.Tag), c.ID, displayReason))
}

// WarningRemove deletes a warning by id. The original target is DMed
// before the row disappears; the removal reason only reaches the audit
// trail, never the store.
func (a *Actions) WarningRemove(ctx context.Context, r RemoveRequest) Result {
	return a.removeCase(ctx, r, store.CaseWarning)
}

// NoteAdd records a staff note. Notes perform no target checks at all and
// never notify the target.
func (a *Actions) NoteAdd(ctx context.Context, r Request) Result {
	actionID := uuid.NewString()

	displayContent := sanitize.ForDisplay(r.Reason)
	c, err := a.persistCase(ctx, r, func(pctx context.Context) (*store.Case, error) {
		return a.Store.CreateNote(pctx, r.GuildID, r.Target.UserID, r.Moderator.UserID, sanitize.ForStorage(r.Reason))
	})
	if err != nil {
		a.Log.Error(fmt.Sprintf("Persisting note for %s in guild %s failed: %v (action %s)", r.Target.UserID, r.GuildID, err, actionID), "Moderation")
		return rejected(store.UserMessage(err, "note", "adding the note", 0))
	}

	a.emit(modlog.Entry{
		ID:           actionID,
		GuildID:      r.GuildID,
		Action:       modlog.ActionNoteAdd,
		TargetID:     r.Target.UserID,
		TargetTag:    sanitize.UserTag(r.Target.Tag),
		ModeratorID:  r.Moderator.UserID,
		ModeratorTag: sanitize.UserTag(r.Moderator.Tag),
		Reason:       sanitize.ForLogging(r.Reason),
		CaseID:       c.ID,
	})

	return success(fmt.Sprintf("Note added for %s (ID: %d) for: %s", sanitize.UserTag(r.Target.Tag), c.ID, displayContent))
}

// NoteRemove deletes a note by id. No DM is sent.
func (a *Actions) NoteRemove(ctx context.Context, r RemoveRequest) Result {
	return a.removeCase(ctx, r, store.CaseNote)
}

// Warnings returns the complete newest-first warning list for a member.
// Pagination is the caller's concern.
func (a *Actions) Warnings(ctx context.Context, guildID, userID string) ([]store.Case, error) {
	return a.Store.ListCasesForUser(ctx, userID, guildID, store.CaseWarning)
}

// Notes returns the complete newest-first note list for a member.
func (a *Actions) Notes(ctx context.Context, guildID, userID string) ([]store.Case, error) {
	return a.Store.ListCasesForUser(ctx, userID, guildID, store.CaseNote)
}

func (a *Actions) removeCase(ctx context.Context, r RemoveRequest, caseType store.CaseType) Result {
	actionID := uuid.NewString()

	noun, action, replyNoun := "note", "removing the note", "Note"
	auditAction := modlog.ActionNoteRemove
	if caseType == store.CaseWarning {
		noun, action, replyNoun = "warning", "removing the warning", "Warning"
		auditAction = modlog.ActionWarningRemove
	}

	c, err := a.Store.FindCase(ctx, r.CaseID)
	if err != nil {
		return rejected(store.UserMessage(err, noun, action, r.CaseID))
	}
	if c.Type != caseType {
		return rejected(fmt.Sprintf("No %s found with ID %d.", noun, r.CaseID))
	}
	if c.GuildID != r.GuildID {
		return rejected(fmt.Sprintf("This %s does not belong to this server.", noun))
	}

	// Resolve the target tag fresh; the member may have left since the
	// case was created.
	targetTag := sanitize.UserTag("")
	err = a.platformCall(ctx, func(pctx context.Context) error {
		u, ferr := a.Platform.FetchUser(pctx, c.UserID)
		if ferr == nil {
			targetTag = sanitize.UserTag(u.Tag)
		}
		return ferr
	})
	if err != nil {
		a.Log.Warn(fmt.Sprintf("Could not resolve user %s for %s removal: %v (action %s)", c.UserID, noun, err, actionID), "Moderation")
	}

	if caseType == store.CaseWarning {
		a.sendDM(ctx, actionID, c.UserID, fmt.Sprintf(
			"Your warning in %s has been removed for: %s If you have any questions, please contact the community manager.",
			sanitize.GuildName(r.GuildName), sanitize.ForDisplay(r.Reason)))
	}

	if err := a.Store.DeleteCase(ctx, r.CaseID); err != nil {
		a.Log.Error(fmt.Sprintf("Deleting %s %d in guild %s failed: %v (action %s)", noun, r.CaseID, r.GuildID, err, actionID), "Moderation")
		return rejected(store.UserMessage(err, noun, action, r.CaseID))
	}

	a.emit(modlog.Entry{
		ID:           actionID,
		GuildID:      r.GuildID,
		Action:       auditAction,
		TargetID:     c.UserID,
		TargetTag:    targetTag,
		ModeratorID:  r.Moderator.UserID,
		ModeratorTag: sanitize.UserTag(r.Moderator.Tag),
		Reason:       sanitize.ForLogging(r.Reason),
		CaseID:       r.CaseID,
	})

	return success(fmt.Sprintf("%s ID %d removed.", replyNoun, r.CaseID))
}

func (a *Actions) persistCase(ctx context.Context, r Request, create func(context.Context) (*store.Case, error)) (*store.Case, error) {
	if err := a.Store.UpsertGuild(ctx, r.GuildID, r.GuildName); err != nil {
		return nil, err
	}
	if err := a.Store.UpsertMember(ctx, r.Target.UserID, r.GuildID); err != nil {
		return nil, err
	}
	return create(ctx)
}

// requireMember enforces that the target is still in the guild. Used by
// mute and unmute, which act through member-scoped timeouts.
func (a *Actions) requireMember(ctx context.Context, actionID, guildID, userID, action string) (Result, bool) {
	err := a.platformCall(ctx, func(c context.Context) error {
		_, ferr := a.Platform.FetchMember(c, guildID, userID)
		return ferr
	})
	if errors.Is(err, ErrNotFound) {
		return rejected("Could not find that user in this server."), false
	}
	if err != nil {
		a.Log.Error(fmt.Sprintf("Member lookup for %s in guild %s failed: %v (action %s)", userID, guildID, err, actionID), "Moderation")
		return rejected(fmt.Sprintf("An unexpected error occurred while %s.", action)), false
	}
	return Result{}, true
}

func (a *Actions) platformCall(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, platformCallTimeout)
	defer cancel()
	return fn(cctx)
}

// sendDM is best-effort: closed DMs are common and never block the action.
func (a *Actions) sendDM(ctx context.Context, actionID, userID, text string) {
	cctx, cancel := context.WithTimeout(ctx, platformCallTimeout)
	defer cancel()
	if err := a.Platform.SendDirectMessage(cctx, userID, text); err != nil {
		a.Log.Warn(fmt.Sprintf("Could not DM user %s: %v (action %s)", userID, err, actionID), "Moderation")
	}
}

func (a *Actions) emit(e modlog.Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	a.Audit.Emit(e)
}

func targetCheck(r Request) validate.TargetCheck {
	return validate.TargetCheck{
		TargetID:    r.Target.UserID,
		ActorID:     r.Moderator.UserID,
		TargetIsBot: r.Target.IsBot,
		TargetRank:  r.Target.Rank,
		ActorRank:   r.Moderator.Rank,
	}
}
