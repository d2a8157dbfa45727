// Package permissions resolves the privilege tier of an acting member.
// Four static tiers exist, each a superset of the previous: Owner covers
// Administrator covers Moderator covers Trial Moderator. Resolution is a pure
// function of the actor and the injected role configuration; no global state.
package permissions

// Tier is a privilege level, ordered by privilege.
type Tier int

const (
	TierNone Tier = iota
	TierTrialModerator
	TierModerator
	TierAdministrator
	TierOwner
)

// String returns the human-readable tier name
func (t Tier) String() string {
	switch t {
	case TierOwner:
		return "Owner"
	case TierAdministrator:
		return "Administrator"
	case TierModerator:
		return "Moderator"
	case TierTrialModerator:
		return "Trial Moderator"
	default:
		return "None"
	}
}

// Config holds the configured id sets each tier is resolved against.
type Config struct {
	OwnerIDs            []string
	AdministratorRoles  []string
	ModeratorRoles      []string
	TrialModeratorRoles []string
}

// Actor describes the acting member as far as tier resolution needs.
type Actor struct {
	UserID       string
	RoleIDs      []string
	IsGuildOwner bool
}

// denial messages per required tier
var denialByTier = map[Tier]string{
	TierOwner:          "Only the bot owner(s) can use this command.",
	TierAdministrator:  "Only administrators, bot owners, or the server owner can use this command.",
	TierModerator:      "Only moderators, administrators, bot owners, or the server owner can use this command.",
	TierTrialModerator: "Only trial moderators, moderators, administrators, bot owners, or the server owner can use this command.",
}

// GuildOnlyMessage is returned when the actor cannot be resolved as a guild
// member; it is distinct from a privilege denial.
const GuildOnlyMessage = "This command can only be used in a server."

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func hasAnyRole(roleIDs, configured []string) bool {
	for _, r := range roleIDs {
		if contains(configured, r) {
			return true
		}
	}
	return false
}

// Resolve returns the highest tier the actor holds. Checks run in order:
// configured owner allowlist, guild ownership, administrator role set,
// moderator role set, trial-moderator role set.
func Resolve(cfg Config, actor Actor) Tier {
	if contains(cfg.OwnerIDs, actor.UserID) {
		return TierOwner
	}
	if actor.IsGuildOwner {
		return TierOwner
	}
	if hasAnyRole(actor.RoleIDs, cfg.AdministratorRoles) {
		return TierAdministrator
	}
	if hasAnyRole(actor.RoleIDs, cfg.ModeratorRoles) {
		return TierModerator
	}
	if hasAnyRole(actor.RoleIDs, cfg.TrialModeratorRoles) {
		return TierTrialModerator
	}
	return TierNone
}

// Check verifies the actor satisfies the minimum tier. It returns ok plus the
// user-facing denial message when not. resolvable must be false when the actor
// could not be resolved as a guild member, which always denies with the
// server-only message. Check is stateless and side-effect-free; it must run
// before any mutating call.
func Check(cfg Config, actor Actor, resolvable bool, min Tier) (bool, string) {
	if !resolvable {
		return false, GuildOnlyMessage
	}
	if Resolve(cfg, actor) >= min {
		return true, ""
	}
	return false, denialByTier[min]
}
