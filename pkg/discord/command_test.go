package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/wardenlabs/warden/pkg/permissions"
)

// TestCommandCreation verifies that commands can be created with the builder pattern
func TestCommandCreation(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	cmd := NewCommand("test", "Test command", "test", handler)

	if cmd == nil {
		t.Fatal("NewCommand returned nil")
	}

	if cmd.Name != "test" {
		t.Errorf("Name = %v, want %v", cmd.Name, "test")
	}

	if cmd.Description != "Test command" {
		t.Errorf("Description = %v, want %v", cmd.Description, "Test command")
	}

	if cmd.Category != "test" {
		t.Errorf("Category = %v, want %v", cmd.Category, "test")
	}

	if cmd.Run == nil {
		t.Error("Run function is nil")
	}

	if cmd.MinTier != permissions.TierNone {
		t.Errorf("MinTier = %v, want no tier requirement by default", cmd.MinTier)
	}
}

// TestCommandWithOptions verifies the WithOptions builder method
func TestCommandWithOptions(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "test-option",
		Description: "Test option",
		Required:    true,
	}

	cmd := NewCommand("test", "Test command", "test", handler).
		WithOptions(option)

	if cmd.Options == nil {
		t.Fatal("Options is nil")
	}

	if len(cmd.Options) != 1 {
		t.Fatalf("Options length = %v, want %v", len(cmd.Options), 1)
	}

	if cmd.Options[0].Name != "test-option" {
		t.Errorf("Option name = %v, want %v", cmd.Options[0].Name, "test-option")
	}
}

// TestCommandRequireTier verifies the tier precondition builder method
func TestCommandRequireTier(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	cmd := NewCommand("ban", "Ban a member", "mod", handler).
		RequireTier(permissions.TierModerator)

	if cmd.MinTier != permissions.TierModerator {
		t.Errorf("MinTier = %v, want %v", cmd.MinTier, permissions.TierModerator)
	}
}

// TestCommandAsDev verifies the AsDev builder method
func TestCommandAsDev(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	cmd := NewCommand("test", "Test command", "test", handler).AsDev()

	if !cmd.IsDev {
		t.Error("IsDev should be true after calling AsDev()")
	}
}

// TestToApplicationCommand verifies conversion to Discord application command
func TestToApplicationCommand(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "test-option",
		Description: "Test option",
		Required:    true,
	}

	cmd := NewCommand("test", "Test command", "test", handler).
		WithOptions(option)

	appCmd := cmd.ToApplicationCommand()

	if appCmd == nil {
		t.Fatal("ToApplicationCommand returned nil")
	}

	if appCmd.Name != "test" {
		t.Errorf("ApplicationCommand Name = %v, want %v", appCmd.Name, "test")
	}

	if appCmd.Description != "Test command" {
		t.Errorf("ApplicationCommand Description = %v, want %v", appCmd.Description, "Test command")
	}

	if len(appCmd.Options) != 1 {
		t.Fatalf("ApplicationCommand Options length = %v, want %v", len(appCmd.Options), 1)
	}
}

// TestHighestRolePosition verifies hierarchy rank resolution
func TestHighestRolePosition(t *testing.T) {
	guild := &discordgo.Guild{
		Roles: []*discordgo.Role{
			{ID: "r1", Position: 1},
			{ID: "r2", Position: 5},
			{ID: "r3", Position: 3},
		},
	}
	member := &discordgo.Member{Roles: []string{"r1", "r3"}}

	got := HighestRolePosition(guild, member)
	if got == nil || *got != 3 {
		t.Errorf("HighestRolePosition = %v, want 3", got)
	}

	if HighestRolePosition(nil, member) != nil {
		t.Error("nil guild should yield nil rank")
	}
	if HighestRolePosition(guild, nil) != nil {
		t.Error("nil member should yield nil rank")
	}
}

// TestCommandCollection verifies thread-safe command storage
func TestCommandCollection(t *testing.T) {
	cc := NewCommandCollection()
	cmd := NewCommand("test", "Test", "test", func(ctx *CommandContext) error { return nil })

	cc.Set("test", cmd)

	if got, ok := cc.Get("test"); !ok || got != cmd {
		t.Errorf("Get(test) = %v, %v", got, ok)
	}
	if cc.Size() != 1 {
		t.Errorf("Size = %d, want 1", cc.Size())
	}
	if _, ok := cc.Get("missing"); ok {
		t.Error("Get(missing) should report absence")
	}
}
