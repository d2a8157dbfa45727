// Package sanitize normalizes and bounds free-text input before storage,
// display, and audit logging. The three transforms have different trust
// boundaries and must not be collapsed into one another.
package sanitize

import (
	"math"
	"regexp"
	"strings"
)

const (
	// StorageLimit is the maximum length for stored and displayed text.
	StorageLimit = 1024
	// LogLimit is the maximum length for audit-log text.
	LogLimit = 500
	// MaxID is the largest accepted numeric record id (32-bit positive max).
	MaxID = 2147483647

	ellipsis = "..."
)

var (
	customEmojiPattern = regexp.MustCompile(`<a?:\w+:\d+>`)
	urlPattern         = regexp.MustCompile(`https?://[^\s]+`)
	urlSpecialPattern  = regexp.MustCompile(`[.*+?^${}()|[\]\\]`)
)

// markdownControl reports whether r is a markdown control character.
func markdownControl(r rune) bool {
	switch r {
	case '*', '_', '~', '`', '|', '>':
		return true
	}
	return false
}

// EscapeMarkdown escapes markdown control characters with a backslash.
// Characters already preceded by a backslash are left alone, so the
// transform is idempotent.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	escaped := false
	for _, r := range s {
		if markdownControl(r) && !escaped {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		escaped = r == '\\' && !escaped
	}
	return b.String()
}

// neutralizeMentions prefixes every @ with a backslash so stored or echoed
// text can never ping anyone.
func neutralizeMentions(s string) string {
	return strings.ReplaceAll(s, "@", `\@`)
}

// stripCustomEmoji replaces custom-emoji markup with a placeholder token.
func stripCustomEmoji(s string) string {
	return customEmojiPattern.ReplaceAllString(s, "[emoji]")
}

// platformURL reports whether the URL points at platform-internal content,
// which is safe to leave clickable.
func platformURL(url string) bool {
	return strings.Contains(url, "discord.com/channels/") ||
		strings.Contains(url, "discord.gg/") ||
		strings.Contains(url, "cdn.discordapp.com/")
}

// escapeForeignURLs escapes non-platform URLs so they do not render previews.
func escapeForeignURLs(s string) string {
	return urlPattern.ReplaceAllStringFunc(s, func(match string) string {
		if platformURL(match) {
			return match
		}
		return urlSpecialPattern.ReplaceAllString(match, `\${0}`)
	})
}

// Truncate bounds s to limit runes. When s is longer, the first limit-3
// runes are kept and the ellipsis marker appended, so the result is exactly
// limit runes long.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + ellipsis
}

// ForStorage sanitizes content for database storage (less restrictive than
// display): mentions are neutralized, custom emoji stripped, URLs kept as-is.
func ForStorage(input string) string {
	return ForStorageN(input, StorageLimit)
}

// ForStorageN is ForStorage with an explicit length limit.
func ForStorageN(input string, limit int) string {
	s := neutralizeMentions(input)
	s = stripCustomEmoji(s)
	s = strings.TrimSpace(s)
	return Truncate(s, limit)
}

// ForDisplay sanitizes text for safe display: mention and emoji handling as
// for storage, plus markdown escaping and escaping of non-platform URLs.
func ForDisplay(input string) string {
	return ForDisplayN(input, StorageLimit)
}

// ForDisplayN is ForDisplay with an explicit length limit.
func ForDisplayN(input string, limit int) string {
	s := neutralizeMentions(input)
	s = stripCustomEmoji(s)
	s = escapeForeignURLs(s)
	s = EscapeMarkdown(s)
	s = strings.TrimSpace(s)
	return Truncate(s, limit)
}

// ForLogging sanitizes content for the audit log. Logs have a trusted
// audience, so mentions and URLs are preserved; only markdown is escaped and
// the shorter log limit applied.
func ForLogging(input string) string {
	return ForLoggingN(input, LogLimit)
}

// ForLoggingN is ForLogging with an explicit length limit.
func ForLoggingN(input string, limit int) string {
	s := EscapeMarkdown(input)
	s = strings.TrimSpace(s)
	return Truncate(s, limit)
}

// UserTag escapes markdown in a user tag for safe display.
func UserTag(tag string) string {
	if tag == "" {
		return "Unknown User"
	}
	return EscapeMarkdown(tag)
}

// GuildName escapes markdown in a guild name for safe display.
func GuildName(name string) string {
	if name == "" {
		return "Unknown Server"
	}
	return EscapeMarkdown(name)
}

// ValidateID validates a numeric record id. The id is valid iff it is a
// number in (0, 2^31-1]; the floored value is returned when valid.
func ValidateID(id float64) (int64, bool) {
	if math.IsNaN(id) || id <= 0 || id > MaxID {
		return 0, false
	}
	return int64(math.Floor(id)), true
}
