package email

import (
	"strings"
	"testing"
)

func TestParseTextShapes(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		greeting   string
		paragraphs []string
		signoff    string
	}{
		{
			name:     "empty input falls back to defaults",
			text:     "   \n  ",
			greeting: DefaultGreeting,
			signoff:  DefaultSignoff,
		},
		{
			name:       "title line is stripped",
			text:       "Maintenance Notice: downtime tonight\n\nDear users,\n\nWe are upgrading the database.",
			greeting:   "Dear users,",
			paragraphs: []string{"We are upgrading the database."},
			signoff:    DefaultSignoff,
		},
		{
			name:       "team name on the following paragraph joins the signoff",
			text:       "Hi everyone,\n\nBig news today.\n\nThanks so much,\n\nThe Helium Team",
			greeting:   "Hi everyone,",
			paragraphs: []string{"Big news today."},
			signoff:    "Thanks so much,\nThe Helium Team",
		},
		{
			name:       "team name on the same line splits the signoff",
			text:       "Hello,\n\nUpdate text here.\n\nThanks for reading, The Helium Team",
			greeting:   "Hello,",
			paragraphs: []string{"Update text here."},
			signoff:    "Thanks for reading, \nThe Helium Team",
		},
		{
			name:       "short first paragraph counts as greeting",
			text:       "Quick update\n\nThe new dashboard shipped today.\n\nMaria,",
			greeting:   "Quick update",
			paragraphs: []string{"The new dashboard shipped today."},
			signoff:    "Maria,",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseText(tc.text)
			if parsed.Greeting != tc.greeting {
				t.Fatalf("greeting %q, want %q", parsed.Greeting, tc.greeting)
			}
			if got, want := strings.Join(parsed.Paragraphs, "|"), strings.Join(tc.paragraphs, "|"); got != want {
				t.Fatalf("paragraphs %q, want %q", got, want)
			}
			if parsed.Signoff != tc.signoff {
				t.Fatalf("signoff %q, want %q", parsed.Signoff, tc.signoff)
			}
		})
	}
}

func TestParseTextNormalizesGreetingCase(t *testing.T) {
	parsed := ParseText("greetings from helium,\n\nBody paragraph here.")
	if parsed.Greeting != "Greetings from helium," {
		t.Fatalf("greeting %q, want normalized prefix", parsed.Greeting)
	}
}

func TestParseTextKeepsMultilineSignoffTogether(t *testing.T) {
	text := "Launch Day: the big one\n\nGreetings from Helium,\n\nWe shipped.\n\nThanks,\nThe Helium Team"
	parsed := ParseText(text)
	if parsed.Signoff != "Thanks,\nThe Helium Team" {
		t.Fatalf("signoff %q", parsed.Signoff)
	}
	if len(parsed.Paragraphs) != 1 || parsed.Paragraphs[0] != "We shipped." {
		t.Fatalf("paragraphs %v", parsed.Paragraphs)
	}
}
