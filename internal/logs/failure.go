package logs

import "strings"

// Failure is one parsed failure log line.
type Failure struct {
	Level   string
	Subject string
	Error   string
}

// ParseFailure splits a "LEVEL - <subject> caused <error>" line. Lines in
// any other shape report false.
func ParseFailure(line string) (Failure, bool) {
	level, message, ok := strings.Cut(strings.TrimSpace(line), " - ")
	if !ok || level == "" {
		return Failure{}, false
	}
	subject, cause, ok := strings.Cut(message, " caused ")
	if !ok || strings.TrimSpace(subject) == "" {
		return Failure{}, false
	}
	return Failure{
		Level:   level,
		Subject: strings.TrimSpace(subject),
		Error:   strings.TrimSpace(cause),
	}, true
}
