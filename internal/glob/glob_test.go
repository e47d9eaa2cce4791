package glob

import (
	"regexp"
	"testing"
)

func TestToRegex(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    bool
	}{
		{
			name:    "exact match with no wildcard",
			pattern: "freeze_poll_retry",
			input:   "freeze_poll_retry",
			want:    true,
		},
		{
			name:    "exact match rejects different key",
			pattern: "freeze_poll_retry",
			input:   "commit_sweep",
			want:    false,
		},
		{
			name:    "trailing star matches key=value form",
			pattern: "err=*",
			input:   "err=timeout",
			want:    true,
		},
		{
			name:    "trailing star rejects unrelated key",
			pattern: "err=*",
			input:   "user=timeout",
			want:    false,
		},
		{
			name:    "leading star matches suffix",
			pattern: "*_retry",
			input:   "freeze_poll_retry",
			want:    true,
		},
		{
			name:    "bare star matches anything",
			pattern: "*",
			input:   "tier=lower",
			want:    true,
		},
		{
			name:    "regex metacharacters in the pattern are literal",
			pattern: "path.txt",
			input:   "pathXtxt",
			want:    false,
		},
		{
			name:    "empty pattern matches only empty string",
			pattern: "",
			input:   "",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regex := ToRegex(tt.pattern)
			matched, err := regexp.MatchString(regex, tt.input)
			if err != nil {
				t.Fatalf("failed to compile regex for pattern %q: %v", tt.pattern, err)
			}
			if matched != tt.want {
				t.Errorf("ToRegex(%q) matching %q = %v, want %v (regex: %s)",
					tt.pattern, tt.input, matched, tt.want, regex)
			}
		})
	}
}
