package alerts

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/maildigest/internal/security"
)

// mockSSRFGuard はテスト用のSSRF検証モック。
// httptestサーバはループバックで動くため、実際のガードは使えない。
type mockSSRFGuard struct {
	validateErr error
}

func (m *mockSSRFGuard) ValidateURL(rawURL string) error {
	return m.validateErr
}

func (m *mockSSRFGuard) NewSafeClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func newTestSource(guard *mockSSRFGuard) *Source {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return NewSource(guard, security.NewTextSanitizer(), logger, 5*time.Second, 1<<20)
}

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Google Alert - AI</title>
  <entry>
    <title>&lt;b&gt;AI&lt;/b&gt; breakthrough announced</title>
    <link href="https://www.google.com/url?url=https%3A%2F%2Fexample.com%2Fnews%2F2025%2Fai&amp;ct=ga"/>
    <summary>Researchers &lt;b&gt;announced&lt;/b&gt; a new model.</summary>
  </entry>
  <entry>
    <title>Entry without link</title>
  </entry>
</feed>`

// TestSource_FetchCandidates はフィードエントリが候補に変換され、
// リダイレクトが展開され、マークアップが除去されることを検証する。
func TestSource_FetchCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(testFeedXML))
	}))
	defer srv.Close()

	source := newTestSource(&mockSSRFGuard{})
	candidates := source.FetchCandidates(context.Background(), []string{srv.URL})

	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	if candidates[0].Title != "AI breakthrough announced" {
		t.Errorf("Title = %q", candidates[0].Title)
	}
	if candidates[0].RawURL != "https://example.com/news/2025/ai" {
		t.Errorf("RawURL = %q, want unwrapped target", candidates[0].RawURL)
	}
	if candidates[0].Snippet != "Researchers announced a new model." {
		t.Errorf("Snippet = %q", candidates[0].Snippet)
	}
}

// TestSource_FetchCandidates_IsolatesFailures はフィード単位の失敗が
// 他のフィードに影響しないことを検証する。
func TestSource_FetchCandidates_IsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad":
			w.WriteHeader(http.StatusInternalServerError)
		case "/broken":
			w.Write([]byte("this is not xml at all <<<<"))
		default:
			w.Write([]byte(testFeedXML))
		}
	}))
	defer srv.Close()

	source := newTestSource(&mockSSRFGuard{})
	candidates := source.FetchCandidates(context.Background(), []string{
		srv.URL + "/bad",
		srv.URL + "/broken",
		srv.URL + "/ok",
	})

	if len(candidates) != 1 {
		t.Errorf("len(candidates) = %d, want 1", len(candidates))
	}
}

// TestSource_FetchCandidates_SSRFBlocked はSSRF検証に失敗したフィードが
// 取得されないことを検証する。
func TestSource_FetchCandidates_SSRFBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("blocked feed must not be fetched")
	}))
	defer srv.Close()

	source := newTestSource(&mockSSRFGuard{validateErr: errors.New("private ip")})
	candidates := source.FetchCandidates(context.Background(), []string{srv.URL})

	if len(candidates) != 0 {
		t.Errorf("len(candidates) = %d, want 0", len(candidates))
	}
}
