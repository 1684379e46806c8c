package bot

import (
	"fmt"
	"strings"
)

// Lookup is one resolved (or unresolved) code, ready for formatting. Link is
// empty when the code has no confirmed-active URL.
type Lookup struct {
	Code  string
	Title string
	Link  string
	Found bool
}

// line renders a lookup as "CODE: title", linking the title when a confirmed
// URL exists. The URL is wrapped in <> to suppress chat-client link previews.
func (l Lookup) line() string {
	if !l.Found {
		return fmt.Sprintf("%s: not found", l.Code)
	}
	if l.Link != "" {
		return fmt.Sprintf("%s: [%s](<%s>)", l.Code, l.Title, l.Link)
	}
	return fmt.Sprintf("%s: %s", l.Code, l.Title)
}

// value renders a lookup for an embed field, where the code is the field
// name. Embed fields are only built for resolved lookups.
func (l Lookup) value() string {
	if l.Link != "" {
		return fmt.Sprintf("[%s](<%s>)", l.Title, l.Link)
	}
	return l.Title
}

// FormatReply turns resolved lookups into reply content and embeds.
//
// A single lookup becomes plain text; two or more become one embed with an
// inline field per code. The suffix is appended to single-code content and
// stands alone (leading newline trimmed) as the content of multi-code replies.
func FormatReply(lookups []Lookup, suffix string) (string, []Embed) {
	switch len(lookups) {
	case 0:
		return "", nil
	case 1:
		return lookups[0].line() + suffix, nil
	}

	fields := make([]EmbedField, 0, len(lookups))
	for _, l := range lookups {
		fields = append(fields, EmbedField{
			Name:   l.Code,
			Value:  l.value(),
			Inline: true,
		})
	}
	return strings.TrimPrefix(suffix, "\n"), []Embed{{Fields: fields}}
}
