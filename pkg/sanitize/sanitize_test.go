package sanitize

import (
	"strings"
	"testing"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "hello world", "hello world"},
		{"bold", "**bold**", `\*\*bold\*\*`},
		{"underscore", "_italic_", `\_italic\_`},
		{"spoiler", "||secret||", `\|\|secret\|\|`},
		{"codeblock", "`code`", "\\`code\\`"},
		{"already escaped", `\*not bold\*`, `\*not bold\*`},
		{"mixed", `\*kept* new`, `\*kept\* new`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeMarkdown(tt.input); got != tt.expected {
				t.Errorf("EscapeMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEscapeMarkdownIdempotent(t *testing.T) {
	inputs := []string{
		"**bold** and _italic_ and ||spoiler||",
		`already \*escaped\*`,
		"plain text",
		"`code` ~strike~ >quote",
	}

	for _, in := range inputs {
		once := EscapeMarkdown(in)
		twice := EscapeMarkdown(once)
		if once != twice {
			t.Errorf("EscapeMarkdown not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestForDisplayIdempotentOnMarkdown(t *testing.T) {
	in := "**bold** _italic_ plain"
	once := ForDisplay(in)
	twice := ForDisplay(once)
	if once != twice {
		t.Errorf("ForDisplay not idempotent for markdown input: once=%q twice=%q", once, twice)
	}
}

func TestForStorage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"mentions neutralized", "hello @everyone", `hello \@everyone`},
		{"custom emoji stripped", "nice <:pog:123456789> work", "nice [emoji] work"},
		{"animated emoji stripped", "go <a:party:987654321>", "go [emoji]"},
		{"urls preserved", "see https://example.com/page?q=1", "see https://example.com/page?q=1"},
		{"markdown preserved", "**bold** stays", "**bold** stays"},
		{"trimmed", "  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForStorage(tt.input); got != tt.expected {
				t.Errorf("ForStorage(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestForDisplayEscapesForeignURLs(t *testing.T) {
	got := ForDisplay("visit https://evil.example/x")
	if strings.Contains(got, "https://evil.example/x") {
		t.Errorf("ForDisplay left foreign URL unescaped: %q", got)
	}

	discordLink := "https://discord.com/channels/1/2/3"
	got = ForDisplay("see " + discordLink)
	if !strings.Contains(got, discordLink) {
		t.Errorf("ForDisplay escaped a platform URL: %q", got)
	}

	invite := "https://discord.gg/abc123"
	got = ForDisplay("join " + invite)
	if !strings.Contains(got, invite) {
		t.Errorf("ForDisplay escaped an invite URL: %q", got)
	}
}

func TestForDisplayEscapesMarkdown(t *testing.T) {
	got := ForDisplay("**bold** @here")
	want := `\*\*bold\*\* \@here`
	if got != want {
		t.Errorf("ForDisplay = %q, want %q", got, want)
	}
}

func TestForLoggingPreservesMentionsAndURLs(t *testing.T) {
	in := "@user broke https://example.com **badly**"
	got := ForLogging(in)

	if !strings.Contains(got, "@user") {
		t.Errorf("ForLogging should keep mentions, got %q", got)
	}
	if !strings.Contains(got, "https://example.com") {
		t.Errorf("ForLogging should keep URLs, got %q", got)
	}
	if strings.Contains(got, "**badly**") {
		t.Errorf("ForLogging should escape markdown, got %q", got)
	}
}

func TestTruncateExactLength(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
	}{
		{"just over", strings.Repeat("a", 50), 49},
		{"far over", strings.Repeat("b", 2000), 1024},
		{"log limit", strings.Repeat("c", 501), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.limit)
			if len([]rune(got)) != tt.limit {
				t.Errorf("len(Truncate()) = %d, want %d", len([]rune(got)), tt.limit)
			}
			if !strings.HasSuffix(got, "...") {
				t.Errorf("Truncate() = %q, want ellipsis suffix", got)
			}
		})
	}
}

func TestTruncateShortInputUnchanged(t *testing.T) {
	in := "short"
	if got := Truncate(in, 100); got != in {
		t.Errorf("Truncate(%q, 100) = %q, want unchanged", in, got)
	}
	exact := strings.Repeat("x", 10)
	if got := Truncate(exact, 10); got != exact {
		t.Errorf("Truncate at exact limit = %q, want unchanged", got)
	}
}

func TestSanitizedLengthLaw(t *testing.T) {
	long := strings.Repeat("word ", 400)
	if got := ForStorage(long); len([]rune(got)) != StorageLimit {
		t.Errorf("len(ForStorage(long)) = %d, want %d", len([]rune(got)), StorageLimit)
	}
	if got := ForLogging(long); len([]rune(got)) != LogLimit {
		t.Errorf("len(ForLogging(long)) = %d, want %d", len([]rune(got)), LogLimit)
	}
}

func TestUserTag(t *testing.T) {
	if got := UserTag(""); got != "Unknown User" {
		t.Errorf("UserTag(\"\") = %q, want %q", got, "Unknown User")
	}
	if got := UserTag("user_name"); got != `user\_name` {
		t.Errorf("UserTag(\"user_name\") = %q, want %q", got, `user\_name`)
	}
}

func TestGuildName(t *testing.T) {
	if got := GuildName(""); got != "Unknown Server" {
		t.Errorf("GuildName(\"\") = %q, want %q", got, "Unknown Server")
	}
	if got := GuildName("My *Cool* Server"); got != `My \*Cool\* Server` {
		t.Errorf("GuildName() = %q, want escaped markdown", got)
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name   string
		input  float64
		want   int64
		wantOK bool
	}{
		{"valid", 42, 42, true},
		{"fractional floored", 7.9, 7, true},
		{"max boundary", 2147483647, 2147483647, true},
		{"over max", 2147483648, 0, false},
		{"zero", 0, 0, false},
		{"negative", -5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValidateID(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ValidateID(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ValidateID(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
