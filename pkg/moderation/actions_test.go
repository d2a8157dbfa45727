package moderation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wardenlabs/warden/pkg/modlog"
	"github.com/wardenlabs/warden/pkg/store"
)

// fakePlatform records calls in order and serves configurable members/bans.
type fakePlatform struct {
	calls   []string
	members map[string]*User
	bans    map[string]*User
	users   map[string]*User
	dmErr   error
	banErr  error
	toErr   error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		members: map[string]*User{},
		bans:    map[string]*User{},
		users:   map[string]*User{},
	}
}

func (f *fakePlatform) BanMember(_ context.Context, guildID, userID, _ string) error {
	f.calls = append(f.calls, "ban:"+userID)
	return f.banErr
}

func (f *fakePlatform) UnbanMember(_ context.Context, guildID, userID, _ string) error {
	f.calls = append(f.calls, "unban:"+userID)
	return nil
}

func (f *fakePlatform) TimeoutMember(_ context.Context, guildID, userID string, until *time.Time, _ string) error {
	if until == nil {
		f.calls = append(f.calls, "timeout-clear:"+userID)
	} else {
		f.calls = append(f.calls, "timeout:"+userID)
	}
	return f.toErr
}

func (f *fakePlatform) FetchMember(_ context.Context, guildID, userID string) (*User, error) {
	f.calls = append(f.calls, "fetch-member:"+userID)
	if u, ok := f.members[userID]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (f *fakePlatform) FetchBan(_ context.Context, guildID, userID string) (*User, error) {
	f.calls = append(f.calls, "fetch-ban:"+userID)
	if u, ok := f.bans[userID]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (f *fakePlatform) FetchUser(_ context.Context, userID string) (*User, error) {
	f.calls = append(f.calls, "fetch-user:"+userID)
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (f *fakePlatform) SendDirectMessage(_ context.Context, userID, text string) error {
	f.calls = append(f.calls, "dm:"+userID)
	return f.dmErr
}

// recordingEmitter captures audit entries.
type recordingEmitter struct {
	entries []modlog.Entry
}

func (r *recordingEmitter) Emit(e modlog.Entry) { r.entries = append(r.entries, e) }

func newTestActions(t *testing.T) (*Actions, *fakePlatform, *recordingEmitter) {
	t.Helper()
	st, err := store.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	platform := newFakePlatform()
	audit := &recordingEmitter{}
	return New(st, platform, audit, nil), platform, audit
}

func rank(n int) *int { return &n }

func baseRequest() Request {
	return Request{
		GuildID:   "g1",
		GuildName: "Test Guild",
		Moderator: Moderator{UserID: "mod1", Tag: "mod#0", Rank: rank(10)},
		Target:    Subject{UserID: "u1", Tag: "target#0", Rank: rank(1)},
		Reason:    "spamming",
	}
}

func TestMuteHappyPath(t *testing.T) {
	a, platform, audit := newTestActions(t)
	platform.members["u1"] = &User{ID: "u1", Tag: "target#0"}

	res := a.Mute(context.Background(), MuteRequest{Request: baseRequest(), Minutes: 60})

	want := "Muted target#0 for 60 minute(s) for: spamming"
	if res.Content != want {
		t.Errorf("reply = %q, want %q", res.Content, want)
	}
	if res.Ephemeral {
		t.Error("success reply should not be ephemeral")
	}

	cases, _ := a.Store.ListCasesForUser(context.Background(), "u1", "g1", store.CaseMute)
	if len(cases) != 1 {
		t.Fatalf("persisted %d mute cases, want 1", len(cases))
	}
	c := cases[0]
	if !c.Active || c.DurationSeconds != 3600 {
		t.Errorf("case active=%v duration=%ds, want active 3600s", c.Active, c.DurationSeconds)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("emitted %d audit entries, want 1", len(audit.entries))
	}
	e := audit.entries[0]
	if e.Action != modlog.ActionMute || e.CaseID != c.ID {
		t.Errorf("audit entry = %+v, want mute with case id %d", e, c.ID)
	}
	if modlog.FormatDuration(e.Duration) != "60 minute(s)" {
		t.Errorf("audit duration = %q, want 60 minute(s)", modlog.FormatDuration(e.Duration))
	}

	// DM goes out before the timeout lands.
	wantOrder := []string{"dm:u1", "fetch-member:u1", "timeout:u1"}
	if fmt.Sprint(platform.calls) != fmt.Sprint(wantOrder) {
		t.Errorf("platform calls = %v, want %v", platform.calls, wantOrder)
	}
}

func TestMuteRejectsSelfBotHierarchy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		want   string
	}{
		{"self", func(r *Request) { r.Target.UserID = "mod1" }, "You cannot mute yourself."},
		{"bot", func(r *Request) { r.Target.IsBot = true }, "You cannot mute a bot."},
		{"equal rank", func(r *Request) { r.Target.Rank = rank(10) }, "You cannot mute someone with a higher or equal role to yourself."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, platform, audit := newTestActions(t)
			r := baseRequest()
			tt.mutate(&r)

			res := a.Mute(context.Background(), MuteRequest{Request: r, Minutes: 60})

			if res.Content != tt.want {
				t.Errorf("reply = %q, want %q", res.Content, tt.want)
			}
			if len(platform.calls) != 0 {
				t.Errorf("rejection must precede side effects, got calls %v", platform.calls)
			}
			if len(audit.entries) != 0 {
				t.Error("rejection must not emit audit entries")
			}
		})
	}
}

func TestMuteDurationBounds(t *testing.T) {
	a, _, _ := newTestActions(t)
	for _, minutes := range []int64{0, -5, 10081} {
		res := a.Mute(context.Background(), MuteRequest{Request: baseRequest(), Minutes: minutes})
		if res.Content != "Duration must be between 1 and 10080 minutes." {
			t.Errorf("Mute(%d min) reply = %q", minutes, res.Content)
		}
	}
}

func TestMuteRequiresCurrentMember(t *testing.T) {
	a, _, audit := newTestActions(t)
	// No member registered on the fake platform.
	res := a.Mute(context.Background(), MuteRequest{Request: baseRequest(), Minutes: 60})

	if res.Content != "Could not find that user in this server." {
		t.Errorf("reply = %q", res.Content)
	}
	cases, _ := a.Store.ListCasesForUser(context.Background(), "u1", "g1", store.CaseMute)
	if len(cases) != 0 {
		t.Error("failed mute must not persist a case")
	}
	if len(audit.entries) != 0 {
		t.Error("failed mute must not emit audit entries")
	}
}

func TestMuteDMFailureIsNonFatal(t *testing.T) {
	a, platform, _ := newTestActions(t)
	platform.members["u1"] = &User{ID: "u1", Tag: "target#0"}
	platform.dmErr = errors.New("cannot send messages to this user")

	res := a.Mute(context.Background(), MuteRequest{Request: baseRequest(), Minutes: 60})

	if !strings.HasPrefix(res.Content, "Muted ") {
		t.Errorf("closed DMs must not fail the action, reply = %q", res.Content)
	}
}

func TestMutePlatformFailureIsFatal(t *testing.T) {
	a, platform, audit := newTestActions(t)
	platform.members["u1"] = &User{ID: "u1", Tag: "target#0"}
	platform.toErr = errors.New("missing permissions")

	res := a.Mute(context.Background(), MuteRequest{Request: baseRequest(), Minutes: 60})

	if res.Content != "An unexpected error occurred while muting the user." {
		t.Errorf("reply = %q", res.Content)
	}
	cases, _ := a.Store.ListCasesForUser(context.Background(), "u1", "g1", store.CaseMute)
	if len(cases) != 0 {
		t.Error("platform failure must not persist a case")
	}
	if len(audit.entries) != 0 {
		t.Error("platform failure must not emit audit entries")
	}
}

func TestUnmuteWithNoActiveMuteSucceeds(t *testing.T) {
	a, platform, audit := newTestActions(t)
	platform.members["u1"] = &User{ID: "u1", Tag: "target#0"}

	res := a.Unmute(context.Background(), baseRequest())

	if res.Content != "Unmuted target#0 for: spamming" {
		t.Errorf("reply = %q", res.Content)
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != modlog.ActionUnmute {
		t.Errorf("audit entries = %+v, want one unmute", audit.entries)
	}
}

func TestUnmuteDeactivatesAllActiveMutes(t *testing.T) {
	a, platform, _ := newTestActions(t)
	platform.members["u1"] = &User{ID: "u1", Tag: "target#0"}
	ctx := context.Background()
	a.Store.CreateMute(ctx, "g1", "u1", "mod1", "one", time.Hour)
	a.Store.CreateMute(ctx, "g1", "u1", "mod1", "two", time.Hour)

	a.Unmute(ctx, baseRequest())

	if _, err := a.Store.FindLatestActiveMute(ctx, "u1", "g1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("active mute still present after unmute, err = %v", err)
	}
	cases, _ := a.Store.ListCasesForUser(ctx, "u1", "g1", store.CaseMute)
	if len(cases) != 2 {
		t.Errorf("mute history = %d rows, want 2 preserved", len(cases))
	}
}

func TestBanPersistsNoCaseAndDMsFirst(t *testing.T) {
	a, platform, audit := newTestActions(t)

	res := a.Ban(context.Background(), baseRequest())

	if res.Content != "Banned target#0 for: spamming" {
		t.Errorf("reply = %q", res.Content)
	}
	wantOrder := []string{"dm:u1", "ban:u1"}
	if fmt.Sprint(platform.calls) != fmt.Sprint(wantOrder) {
		t.Errorf("platform calls = %v, want %v", platform.calls, wantOrder)
	}
	counts, _ := a.Store.CountCases(context.Background())
	for typ, n := range counts {
		if n != 0 {
			t.Errorf("ban persisted %d %s cases, want none", n, typ)
		}
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != modlog.ActionBan {
		t.Errorf("audit entries = %+v, want one ban", audit.entries)
	}
}

func TestBanPlatformFailure(t *testing.T) {
	a, platform, audit := newTestActions(t)
	platform.banErr = errors.New("missing permissions")

	res := a.Ban(context.Background(), baseRequest())

	if res.Content != "An unexpected error occurred while banning the user." {
		t.Errorf("reply = %q", res.Content)
	}
	if len(audit.entries) != 0 {
		t.Error("failed ban must not emit audit entries")
	}
}

func TestUnban(t *testing.T) {
	a, platform, _ := newTestActions(t)
	platform.bans["123456789012345678"] = &User{ID: "123456789012345678", Tag: "banned#0"}

	r := UnbanRequest{
		GuildID:   "g1",
		GuildName: "Test Guild",
		Moderator: Moderator{UserID: "mod1", Tag: "mod#0"},
		TargetID:  "123456789012345678",
		Reason:    "appealed",
	}
	res := a.Unban(context.Background(), r)

	if res.Content != "Unbanned banned#0 for: appealed" {
		t.Errorf("reply = %q", res.Content)
	}

	r.TargetID = "not-a-snowflake"
	if res := a.Unban(context.Background(), r); res.Content != "Please provide a valid user ID." {
		t.Errorf("malformed id reply = %q", res.Content)
	}

	r.TargetID = "999999999999999999"
	if res := a.Unban(context.Background(), r); res.Content != "User ID 999999999999999999 is not banned." {
		t.Errorf("not-banned reply = %q", res.Content)
	}
}

func TestWarningAddSkipsHierarchy(t *testing.T) {
	a, _, _ := newTestActions(t)
	r := baseRequest()
	r.Target.Rank = rank(99) // higher than the moderator

	res := a.WarningAdd(context.Background(), r)

	if !strings.HasPrefix(res.Content, "Warning added for target#0 (ID: ") {
		t.Errorf("hierarchy must not block warnings, reply = %q", res.Content)
	}
}

func TestWarningAddRejectsSelfAndBot(t *testing.T) {
	a, _, _ := newTestActions(t)

	r := baseRequest()
	r.Target.UserID = "mod1"
	if res := a.WarningAdd(context.Background(), r); res.Content != "You cannot warn yourself." {
		t.Errorf("self reply = %q", res.Content)
	}

	r = baseRequest()
	r.Target.IsBot = true
	if res := a.WarningAdd(context.Background(), r); res.Content != "You cannot warn a bot." {
		t.Errorf("bot reply = %q", res.Content)
	}
}

func TestWarningAddDMsAfterPersisting(t *testing.T) {
	a, platform, _ := newTestActions(t)

	res := a.WarningAdd(context.Background(), baseRequest())

	want := "Warning added for target#0 (ID: 1) for: spamming"
	if res.Content != want {
		t.Errorf("reply = %q, want %q", res.Content, want)
	}
	if fmt.Sprint(platform.calls) != fmt.Sprint([]string{"dm:u1"}) {
		t.Errorf("platform calls = %v, want only the post-persist DM", platform.calls)
	}
	cases, _ := a.Store.ListCasesForUser(context.Background(), "u1", "g1", store.CaseWarning)
	if len(cases) != 1 {
		t.Errorf("persisted %d warnings, want 1", len(cases))
	}
}

func TestWarningRemoveMissingID(t *testing.T) {
	a, platform, audit := newTestActions(t)

	r := RemoveRequest{GuildID: "g1", GuildName: "Test Guild", Moderator: Moderator{UserID: "mod1", Tag: "mod#0"}, CaseID: 9999, Reason: "mistake"}
	res := a.WarningRemove(context.Background(), r)

	if res.Content != "No warning found with ID 9999." {
		t.Errorf("reply = %q", res.Content)
	}
	if len(audit.entries) != 0 || len(platform.calls) != 0 {
		t.Error("missing id must cause no audit entry and no platform call")
	}
}

func TestWarningRemoveWrongGuild(t *testing.T) {
	a, _, _ := newTestActions(t)
	ctx := context.Background()
	c, _ := a.Store.CreateWarning(ctx, "other-guild", "u1", "mod1", "reason")

	r := RemoveRequest{GuildID: "g1", GuildName: "Test Guild", Moderator: Moderator{UserID: "mod1", Tag: "mod#0"}, CaseID: c.ID, Reason: "mistake"}
	res := a.WarningRemove(ctx, r)

	if res.Content != "This warning does not belong to this server." {
		t.Errorf("reply = %q", res.Content)
	}
	if _, err := a.Store.FindCase(ctx, c.ID); err != nil {
		t.Errorf("case must survive cross-guild removal attempt, err = %v", err)
	}
}

func TestWarningRemoveHappyPath(t *testing.T) {
	a, platform, audit := newTestActions(t)
	ctx := context.Background()
	platform.users["u1"] = &User{ID: "u1", Tag: "target#0"}
	c, _ := a.Store.CreateWarning(ctx, "g1", "u1", "mod1", "reason")

	r := RemoveRequest{GuildID: "g1", GuildName: "Test Guild", Moderator: Moderator{UserID: "mod1", Tag: "mod#0"}, CaseID: c.ID, Reason: "appealed"}
	res := a.WarningRemove(ctx, r)

	if res.Content != fmt.Sprintf("Warning ID %d removed.", c.ID) {
		t.Errorf("reply = %q", res.Content)
	}
	if _, err := a.Store.FindCase(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("warning should be deleted, err = %v", err)
	}
	// The original target is DMed before deletion.
	if fmt.Sprint(platform.calls) != fmt.Sprint([]string{"fetch-user:u1", "dm:u1"}) {
		t.Errorf("platform calls = %v", platform.calls)
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != modlog.ActionWarningRemove {
		t.Errorf("audit entries = %+v, want one warning removal", audit.entries)
	}
	if audit.entries[0].TargetTag != "target#0" {
		t.Errorf("audit target tag = %q, want freshly resolved tag", audit.entries[0].TargetTag)
	}
}

func TestNoteAddBypassesTargetChecks(t *testing.T) {
	a, platform, _ := newTestActions(t)

	// Self-targeted note is allowed; notes perform no eligibility checks.
	r := baseRequest()
	r.Target.UserID = "mod1"
	r.Target.Tag = "mod#0"
	r.Reason = "keeps an eye on the trivia channel"

	res := a.NoteAdd(context.Background(), r)

	if !strings.HasPrefix(res.Content, "Note added for mod#0 (ID: ") {
		t.Errorf("reply = %q", res.Content)
	}
	if len(platform.calls) != 0 {
		t.Errorf("notes never touch the platform, calls = %v", platform.calls)
	}
}

func TestNoteRemoveNeverDMs(t *testing.T) {
	a, platform, audit := newTestActions(t)
	ctx := context.Background()
	platform.users["u1"] = &User{ID: "u1", Tag: "target#0"}
	c, _ := a.Store.CreateNote(ctx, "g1", "u1", "mod1", "content")

	r := RemoveRequest{GuildID: "g1", GuildName: "Test Guild", Moderator: Moderator{UserID: "mod1", Tag: "mod#0"}, CaseID: c.ID, Reason: "cleanup"}
	res := a.NoteRemove(ctx, r)

	if res.Content != fmt.Sprintf("Note ID %d removed.", c.ID) {
		t.Errorf("reply = %q", res.Content)
	}
	for _, call := range platform.calls {
		if strings.HasPrefix(call, "dm:") {
			t.Errorf("note removal must not DM, calls = %v", platform.calls)
		}
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != modlog.ActionNoteRemove {
		t.Errorf("audit entries = %+v", audit.entries)
	}
}

func TestNoteRemoveRejectsWarningID(t *testing.T) {
	a, _, _ := newTestActions(t)
	ctx := context.Background()
	c, _ := a.Store.CreateWarning(ctx, "g1", "u1", "mod1", "reason")

	r := RemoveRequest{GuildID: "g1", GuildName: "Test Guild", Moderator: Moderator{UserID: "mod1", Tag: "mod#0"}, CaseID: c.ID, Reason: "cleanup"}
	res := a.NoteRemove(ctx, r)

	if res.Content != fmt.Sprintf("No note found with ID %d.", c.ID) {
		t.Errorf("reply = %q", res.Content)
	}
}

func TestListingsAreNewestFirst(t *testing.T) {
	a, _, _ := newTestActions(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if _, err := a.Store.CreateWarning(ctx, "g1", "u1", "mod1", fmt.Sprintf("w%d", i)); err != nil {
			t.Fatalf("seeding warning: %v", err)
		}
	}

	warnings, err := a.Warnings(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("Warnings() error: %v", err)
	}
	if len(warnings) != 3 {
		t.Fatalf("len = %d, want 3", len(warnings))
	}
	if warnings[0].ID < warnings[2].ID {
		t.Errorf("warnings not newest-first: ids %d..%d", warnings[0].ID, warnings[2].ID)
	}
}
