package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		profile Profile
		want    string
	}{
		{
			name:    "redaction placeholders and CRLF",
			text:    "Line1\r\nLine2___redacted___\n",
			profile: ProfileBasic,
			want:    "Line1 Line2 redacted",
		},
		{
			name:    "em and en dashes become spaces",
			text:    "stable—afebrile–improving",
			profile: ProfileBasic,
			want:    "stable afebrile improving",
		},
		{
			name:    "basic keeps punctuation",
			text:    `Allergies: "penicillin"; rash`,
			profile: ProfileBasic,
			want:    `Allergies: "penicillin"; rash`,
		},
		{
			name:    "compact strips quotes colons semicolons",
			text:    `Allergies: "penicillin"; rash`,
			profile: ProfileCompact,
			want:    "Allergies penicillin rash",
		},
		{
			name:    "space runs collapse",
			text:    "a  b   c",
			profile: ProfileBasic,
			want:    "a b c",
		},
		{
			name:    "single underscore survives",
			text:    "field_name here",
			profile: ProfileBasic,
			want:    "field_name here",
		},
		{
			name:    "empty input",
			text:    "",
			profile: ProfileBasic,
			want:    "",
		},
		{
			name:    "whitespace only",
			text:    " \n\r \n",
			profile: ProfileBasic,
			want:    "",
		},
		{
			name:    "unknown profile behaves like basic",
			text:    "a:  b\n",
			profile: Profile("other"),
			want:    "a: b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.text, tt.profile); got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.text, tt.profile, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Line1\r\nLine2___redacted___\n",
		`Dose: 5mg; "with food" — daily`,
		"plain text",
	}
	for _, profile := range []Profile{ProfileBasic, ProfileCompact} {
		for _, in := range inputs {
			once := Normalize(in, profile)
			twice := Normalize(once, profile)
			if once != twice {
				t.Errorf("profile %q: Normalize not idempotent on %q: %q != %q", profile, in, once, twice)
			}
		}
	}
}
