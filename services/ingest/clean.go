package ingest

import (
	"regexp"
	"strings"
)

// cleaningRules run in a fixed order; later rules assume earlier ones
// already ran (URLs are stripped before whitespace is collapsed, so a
// removed URL never leaves a double space behind).
var cleaningRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	// Page numbering boilerplate ("Page 3 of 12", standalone digit lines).
	{regexp.MustCompile(`(?i)\bPage\s+\d+\s+of\s+\d+\b`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]*$`), ""},
	// Copyright and legal notices.
	{regexp.MustCompile(`(?i)Copyright\s+©?\s*\d{4}.*`), ""},
	{regexp.MustCompile(`(?i)All rights reserved.*`), ""},
	// Markup artifacts.
	{regexp.MustCompile(`<[^>]+>`), ""},
	// URLs.
	{regexp.MustCompile(`https?://\S+`), ""},
	// Repeated dashes / underscores used as dividers.
	{regexp.MustCompile(`[-_]{4,}`), ""},
	// Normalize bullet glyphs to a single canonical marker.
	{regexp.MustCompile(`(?m)^[ \t]*[•●▪◦][ \t]*`), "• "},
	// Collapse excessive punctuation and whitespace.
	{regexp.MustCompile(`\.{3,}`), "..."},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
	{regexp.MustCompile(`[ \t]+`), " "},
}

// CleanText strips extraction noise from raw document text. Page markers
// emitted by extraction are left intact for the chunking stage. The
// function never fails; malformed input just cleans to less text.
func CleanText(text string) string {
	for _, rule := range cleaningRules {
		text = rule.pattern.ReplaceAllString(text, rule.replacement)
	}
	return strings.TrimSpace(text)
}
