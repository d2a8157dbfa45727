// Package validate rejects ineligible moderation targets and malformed
// identifiers before any side effect happens.
package validate

import (
	"fmt"
	"regexp"
)

var snowflakePattern = regexp.MustCompile(`^[0-9]{15,21}$`)

// Mute duration bounds, in minutes.
const (
	MinMuteMinutes = 1
	MaxMuteMinutes = 10080 // 7 days
)

// TargetCheck carries everything the target validator looks at. TargetRank
// and ActorRank are the highest-role positions of the respective members and
// are nil when that side could not be resolved as a guild member (e.g. the
// target already left), in which case the hierarchy check is skipped.
type TargetCheck struct {
	TargetID    string
	ActorID     string
	TargetIsBot bool
	TargetRank  *int
	ActorRank   *int
}

// Target applies the target-eligibility checks in order: self-target, bot
// target, role hierarchy. It returns ok plus the first failing reason,
// phrased with the action verb (e.g. "ban", "mute").
func Target(c TargetCheck, verb string) (bool, string) {
	if c.TargetID == c.ActorID {
		return false, fmt.Sprintf("You cannot %s yourself.", verb)
	}
	if c.TargetIsBot {
		return false, fmt.Sprintf("You cannot %s a bot.", verb)
	}
	if c.TargetRank != nil && c.ActorRank != nil && *c.TargetRank >= *c.ActorRank {
		return false, fmt.Sprintf("You cannot %s someone with a higher or equal role to yourself.", verb)
	}
	return true, ""
}

// Snowflake reports whether s looks like a platform user id.
func Snowflake(s string) bool {
	return snowflakePattern.MatchString(s)
}

// MuteDuration reports whether the requested mute duration is in bounds.
func MuteDuration(minutes int64) bool {
	return minutes >= MinMuteMinutes && minutes <= MaxMuteMinutes
}
