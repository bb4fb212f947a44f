package urlnorm

import "testing"

func TestNormalize_StripsTrackingParams(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "utm params removed",
			in:   "https://example.com/news/2025/story?utm_source=newsletter&utm_medium=email",
			want: "https://example.com/news/2025/story",
		},
		{
			name: "fbclid removed",
			in:   "https://example.com/story?fbclid=abc123",
			want: "https://example.com/story",
		},
		{
			name: "non-tracking params kept",
			in:   "https://example.com/story?id=42&utm_campaign=x",
			want: "https://example.com/story?id=42",
		},
		{
			name: "mailchimp params removed",
			in:   "https://example.com/a?mc_cid=1&mc_eid=2",
			want: "https://example.com/a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_HostAndFragment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fragment cleared",
			in:   "https://example.com/news/2025/story?utm_source=alerts#top",
			want: "https://example.com/news/2025/story",
		},
		{
			name: "leading www stripped",
			in:   "https://www.example.com/story",
			want: "https://example.com/story",
		},
		{
			name: "host lowercased",
			in:   "https://Example.COM/story",
			want: "https://example.com/story",
		},
		{
			name: "trailing slash stripped",
			in:   "https://example.com/story/",
			want: "https://example.com/story",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/news/2025/story?utm_source=newsletter",
		"https://www.example.com/story/#section",
		"https://example.com/story//",
		"https://example.com/story?id=42&b=1",
		"https://www.google.com/url?q=https%3A%2F%2Fexample.com%2Fnews%2Fstory&sa=D",
		"not a url at all",
		"",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestNormalize_UnparsableInputReturnedTrimmed(t *testing.T) {
	in := "  http://exa mple.com/%%zz  "
	got := Normalize(in)
	if got != "http://exa mple.com/%%zz" {
		t.Errorf("Normalize(%q) = %q, want trimmed input", in, got)
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "q parameter",
			in:   "https://www.google.com/url?q=https%3A%2F%2Fexample.com%2Fnews&sa=D&source=alerts",
			want: "https://example.com/news",
		},
		{
			name: "url parameter",
			in:   "https://www.google.com/url?url=https%3A%2F%2Fexample.com%2Fstory",
			want: "https://example.com/story",
		},
		{
			name: "plain url untouched",
			in:   "https://example.com/news/story",
			want: "https://example.com/news/story",
		},
		{
			name: "wrapper without destination untouched",
			in:   "https://www.google.com/url?sa=D",
			want: "https://www.google.com/url?sa=D",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnwrapRedirect(tt.in); got != tt.want {
				t.Errorf("UnwrapRedirect(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHostname(t *testing.T) {
	if got := Hostname("https://www.example.com/story"); got != "example.com" {
		t.Errorf("Hostname = %q, want %q", got, "example.com")
	}
	if got := Hostname("://bad"); got != "" {
		t.Errorf("Hostname of invalid URL = %q, want empty", got)
	}
}
