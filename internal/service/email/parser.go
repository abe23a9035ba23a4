package email

import (
	"regexp"
	"strings"
)

// ParsedContent is the structured form of an operator-written email body.
// The HTML templates place each part in its own slot of the layout.
type ParsedContent struct {
	Greeting   string
	Paragraphs []string
	Signoff    string
}

// Defaults used when a part cannot be found in the text.
const (
	DefaultGreeting = "Greetings from Helium,"
	DefaultSignoff  = "Thanks,\nThe Helium Team"
)

var (
	titleLine    = regexp.MustCompile(`^[^:]+:.*?\n\n?`)
	paragraphGap = regexp.MustCompile(`\n\n+`)
	lineBreaks   = regexp.MustCompile(`\n+`)

	greetingLead  = regexp.MustCompile(`(?i)^(greetings|dear|hello|hi)[\s,]`)
	greetingWord  = regexp.MustCompile(`(?i)^(greetings from|dear|hello|hi)`)
	greetingsFrom = regexp.MustCompile(`(?i)^greetings from `)
	sentenceMark  = regexp.MustCompile(`[.!?]\s`)

	signoffLead = regexp.MustCompile(`(?i)^(thanks|thank you|best regards|sincerely|regards|yours truly)`)
	teamMention = regexp.MustCompile(`(?i)(helium team|team|helium)`)
	inlineTeam  = regexp.MustCompile(`(?i)(thanks.*?)(the helium team)`)
	bareName    = regexp.MustCompile(`^[A-Z][a-z]+,\s*$`)
)

// ParseText splits free-form text into greeting, body paragraphs and
// signoff. Operators write emails as plain text in the dashboard compose
// box; a leading "Subject: ..." style title line is dropped, paragraphs
// are separated by blank lines, and missing parts fall back to the
// Helium defaults.
func ParseText(text string) ParsedContent {
	parsed := ParsedContent{Greeting: DefaultGreeting, Signoff: DefaultSignoff}
	if strings.TrimSpace(text) == "" {
		return parsed
	}

	cleaned := strings.TrimSpace(titleLine.ReplaceAllString(text, ""))

	paragraphs := splitParagraphs(paragraphGap, cleaned)
	if len(paragraphs) == 0 {
		paragraphs = splitParagraphs(lineBreaks, cleaned)
	}

	paragraphs, parsed.Greeting = extractGreeting(paragraphs)
	paragraphs, parsed.Signoff = extractSignoff(paragraphs)
	parsed.Paragraphs = paragraphs
	return parsed
}

func splitParagraphs(sep *regexp.Regexp, text string) []string {
	var out []string
	for _, part := range sep.Split(text, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// extractGreeting removes the greeting paragraph and returns it. A short
// first paragraph with no sentence punctuation counts as a greeting even
// when it doesn't start with a salutation word.
func extractGreeting(paragraphs []string) ([]string, string) {
	for i, para := range paragraphs {
		if greetingLead.MatchString(para) || greetingWord.MatchString(para) {
			greeting := greetingsFrom.ReplaceAllString(para, "Greetings from ")
			return append(paragraphs[:i], paragraphs[i+1:]...), greeting
		}
	}
	if len(paragraphs) > 0 {
		first := paragraphs[0]
		if len(first) < 100 && !sentenceMark.MatchString(first) {
			return paragraphs[1:], first
		}
	}
	return paragraphs, DefaultGreeting
}

// extractSignoff removes the signoff and, when the team name sits in the
// paragraph after it or on the same line, folds it onto a second line.
func extractSignoff(paragraphs []string) ([]string, string) {
	for i, para := range paragraphs {
		if !signoffLead.MatchString(para) {
			continue
		}
		if i+1 < len(paragraphs) && teamMention.MatchString(paragraphs[i+1]) {
			signoff := para + "\n" + paragraphs[i+1]
			return append(paragraphs[:i], paragraphs[i+2:]...), signoff
		}
		if m := inlineTeam.FindStringSubmatch(para); m != nil {
			return append(paragraphs[:i], paragraphs[i+1:]...), m[1] + "\n" + m[2]
		}
		return append(paragraphs[:i], paragraphs[i+1:]...), para
	}
	if n := len(paragraphs); n > 0 {
		last := paragraphs[n-1]
		if len(last) < 100 && bareName.MatchString(last) {
			return paragraphs[:n-1], last
		}
	}
	return paragraphs, DefaultSignoff
}
