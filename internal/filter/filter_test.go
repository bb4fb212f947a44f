package filter

import "testing"

func TestIsBlockedDomain(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://youtube.com/watch?v=abc", true},
		{"https://www.youtube.com/watch?v=abc", true},
		{"https://m.youtube.com/watch?v=abc", true}, // subdomain
		{"https://tiktok.com/@user/video/1", true},
		{"https://x.com/user/status/1", true},
		{"https://example.com/news/story", false},
		{"https://notyoutube.com/story", false}, // suffix but not subdomain
		{"", false},
	}

	for _, tt := range tests {
		if got := IsBlockedDomain(tt.url); got != tt.want {
			t.Errorf("IsBlockedDomain(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestHasBlockedKeyword(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://news.example.com/unsubscribe?id=1", true},
		{"https://example.com/email/preferences", true},
		{"https://www.google.com/alerts/edit?id=1", true},
		{"https://myaccount.google.com/settings", true},
		{"https://example.com/news/story", false},
	}

	for _, tt := range tests {
		if got := HasBlockedKeyword(tt.url); got != tt.want {
			t.Errorf("HasBlockedKeyword(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestIsAggregatorURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://google.com/search?q=topic", true},
		{"https://news.google.com/search?q=topic", true},
		{"https://search.naver.com/search.naver?query=x", true},
		{"https://example.com/news/story", false},
	}

	for _, tt := range tests {
		if got := IsAggregatorURL(tt.url); got != tt.want {
			t.Errorf("IsAggregatorURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestIsLikelyArticleURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/news/2025/story", true},
		{"http://example.com/a", true},
		{"https://example.com/", false},
		{"https://example.com", false},
		{"ftp://example.com/story", false},
		{"https://localhost/story", false}, // no dot in hostname
		{"", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		if got := IsLikelyArticleURL(tt.url); got != tt.want {
			t.Errorf("IsLikelyArticleURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestChain_Keep(t *testing.T) {
	c := NewChain()

	tests := []struct {
		name      string
		raw       string
		canonical string
		want      bool
	}{
		{
			name:      "ordinary article kept",
			raw:       "https://example.com/news/2025/story?utm_source=x",
			canonical: "https://example.com/news/2025/story",
			want:      true,
		},
		{
			name:      "blocked domain dropped",
			raw:       "https://youtube.com/watch?v=1",
			canonical: "https://youtube.com/watch?v=1",
			want:      false,
		},
		{
			name:      "keyword in raw url dropped even if canonical is clean",
			raw:       "https://example.com/story?ref=unsubscribe",
			canonical: "https://example.com/story",
			want:      false,
		},
		{
			name:      "search results page dropped",
			raw:       "https://news.google.com/search?q=ai",
			canonical: "https://news.google.com/search?q=ai",
			want:      false,
		},
		{
			name:      "root path dropped",
			raw:       "https://example.com/",
			canonical: "https://example.com",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Keep(tt.raw, tt.canonical); got != tt.want {
				t.Errorf("Keep(%q, %q) = %v, want %v", tt.raw, tt.canonical, got, tt.want)
			}
		})
	}
}
