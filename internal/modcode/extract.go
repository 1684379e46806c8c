// Package modcode extracts Open University course, module and qualification
// codes from free-text chat messages.
//
// Two extraction modes exist: command mode for explicit lookup commands
// ("!modulename A123 B321") and inline mode for !CODE mentions anywhere in a
// message ("has anyone taken !M269?").
package modcode

import (
	"regexp"
	"strings"

	"github.com/oulookup/oubot/internal/sliceutil"
)

// DefaultLimit is the maximum number of codes resolved per message.
const DefaultLimit = 5

var (
	// inlineCodeRegex matches !-prefixed mentions: 1-3 letters then 1-3 digits.
	inlineCodeRegex = regexp.MustCompile(`![a-zA-Z]{1,3}[0-9]{1,3}`)

	// commandCodeRegex validates a normalized command-mode token.
	commandCodeRegex = regexp.MustCompile(`^[A-Z0-9]{4,6}$`)
)

// Normalize strips "!" characters and uppercases a token.
func Normalize(token string) string {
	return strings.ToUpper(strings.ReplaceAll(token, "!", ""))
}

// FromCommand extracts codes from a lookup command invocation.
//
// The content is split on whitespace and the first token (the command itself)
// is dropped. Remaining tokens are normalized and kept when alphanumeric and
// 4-6 characters long. The result is deduplicated preserving order and capped
// at limit. rawTokens reports how many tokens followed the command, before
// any validation: the caller needs it for the single-token "not found" reply
// rule.
func FromCommand(content string, limit int) (codes []string, rawTokens int) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	fields := strings.Fields(content)
	if len(fields) < 2 {
		return nil, 0
	}
	tokens := fields[1:]

	valid := make([]string, 0, len(tokens))
	for _, token := range tokens {
		code := Normalize(token)
		if commandCodeRegex.MatchString(code) {
			valid = append(valid, code)
		}
	}

	valid = sliceutil.Deduplicate(valid, func(c string) string { return c })
	if len(valid) > limit {
		valid = valid[:limit]
	}
	return valid, len(tokens)
}

// FromInline extracts !CODE mentions from anywhere in a message.
// Matches are normalized, deduplicated preserving order, and capped at limit.
func FromInline(content string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	matches := inlineCodeRegex.FindAllString(content, -1)
	if len(matches) == 0 {
		return nil
	}

	codes := make([]string, 0, len(matches))
	for _, match := range matches {
		codes = append(codes, Normalize(match))
	}

	codes = sliceutil.Deduplicate(codes, func(c string) string { return c })
	if len(codes) > limit {
		codes = codes[:limit]
	}
	return codes
}
