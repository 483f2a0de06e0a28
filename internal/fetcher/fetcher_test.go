package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rpromhub/rpromhub/internal/target"
)

// branchJSON is a trimmed GET /repos/{owner}/{repo}/branches/{branch} response.
const branchJSON = `{
  "name": "master",
  "commit": {
    "sha": "7fd1a60b01f91b314f59955a4e4d4e80d8edf11d",
    "commit": {
      "author": {
        "name": "The Octocat",
        "email": "octocat@nowhere.com",
        "date": "2023-01-01T00:00:00Z"
      },
      "message": "Merge pull request #6"
    }
  },
  "protected": false
}`

var tgt = target.Target{Owner: "octocat", Repo: "Hello-World", Branch: "master"}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

// newTestFetcher starts a fake API that answers every request with h.
func newTestFetcher(t *testing.T, h http.HandlerFunc) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	f, err := New(srv.URL, "rpromhub-test", srv.Client())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func body(s string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(s))
	}
}

func wantKind(t *testing.T, err error, kind Kind) *FetchError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error %v is not a *FetchError", err)
	}
	if fe.Kind != kind {
		t.Fatalf("Kind: got %s, want %s (err: %v)", fe.Kind, kind, err)
	}
	if fe.Target != tgt {
		t.Errorf("Target: got %v, want %v", fe.Target, tgt)
	}
	return fe
}

func TestFetch_Success(t *testing.T) {
	var gotPath, gotUA string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		body(branchJSON)(w, r)
	})
	now := mustParse(t, "2023-01-11T00:00:00Z")
	f.now = fixedClock(now)

	s, err := f.Fetch(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if s.AgeDays != 10 {
		t.Errorf("AgeDays: got %d, want 10", s.AgeDays)
	}
	if !s.ObservedAt.Equal(now) {
		t.Errorf("ObservedAt: got %v, want %v", s.ObservedAt, now)
	}
	if s.Target != tgt {
		t.Errorf("Target: got %v", s.Target)
	}
	if gotPath != "/repos/octocat/Hello-World/branches/master" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotUA != "rpromhub-test" {
		t.Errorf("User-Agent: got %q", gotUA)
	}
}

func TestFetch_BranchWithSlash(t *testing.T) {
	var gotPath string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		body(branchJSON)(w, r)
	})
	f.now = fixedClock(mustParse(t, "2023-01-02T00:00:00Z"))

	_, err := f.Fetch(context.Background(), target.Target{Owner: "o", Repo: "r", Branch: "release/1.0"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotPath != "/repos/o/r/branches/release%2F1.0" {
		t.Errorf("escaped path: got %q", gotPath)
	}
}

func TestFetch_OffsetTimestamp(t *testing.T) {
	// 2023-01-01T23:00:00-02:00 is 2023-01-02T01:00:00Z.
	f := newTestFetcher(t, body(`{"commit":{"commit":{"author":{"date":"2023-01-01T23:00:00-02:00"}}}}`))
	f.now = fixedClock(mustParse(t, "2023-01-03T00:30:00Z"))

	s, err := f.Fetch(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if s.AgeDays != 0 {
		t.Errorf("AgeDays: got %d, want 0", s.AgeDays)
	}
}

func TestFetch_FutureCommit(t *testing.T) {
	f := newTestFetcher(t, body(`{"commit":{"commit":{"author":{"date":"2023-01-05T00:00:00Z"}}}}`))
	f.now = fixedClock(mustParse(t, "2023-01-01T00:00:00Z"))

	s, err := f.Fetch(context.Background(), tgt)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if s.AgeDays != -4 {
		t.Errorf("AgeDays: got %d, want -4", s.AgeDays)
	}
}

func TestFetch_MissingDate(t *testing.T) {
	f := newTestFetcher(t, body(`{"commit":{"commit":{"author":{"name":"The Octocat"}}}}`))
	_, err := f.Fetch(context.Background(), tgt)
	wantKind(t, err, KindMissingField)
}

func TestFetch_BadTimestamp(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{"words", `"yesterday"`},
		{"date only", `"2023-01-01"`},
		{"unix epoch number", `1672531200`},
		{"unix epoch string", `"1672531200"`},
		{"object", `{"seconds":1672531200}`},
		{"boolean", `true`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestFetcher(t, body(`{"commit":{"commit":{"author":{"date":`+tc.date+`}}}}`))
			s, err := f.Fetch(context.Background(), tgt)
			if s != nil {
				t.Errorf("Fetch returned sample %+v for date %s", s, tc.date)
			}
			wantKind(t, err, KindTimestampParse)
		})
	}
}

func TestFetch_NullDate(t *testing.T) {
	f := newTestFetcher(t, body(`{"commit":{"commit":{"author":{"date":null}}}}`))
	_, err := f.Fetch(context.Background(), tgt)
	wantKind(t, err, KindMissingField)
}

func TestFetch_Decode(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>rate limited</html>"},
		{"truncated", `{"commit":{"commit":`},
		{"wrong type", `{"commit":"abc"}`},
		{"no commit", `{"name":"master"}`},
		{"no author", `{"commit":{"commit":{"message":"x"}}}`},
		{"empty body", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestFetcher(t, body(tc.body))
			_, err := f.Fetch(context.Background(), tgt)
			wantKind(t, err, KindDecode)
		})
	}
}

func TestFetch_HTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
		{"bad gateway", http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"Branch not found"}`))
			})
			_, err := f.Fetch(context.Background(), tgt)
			fe := wantKind(t, err, KindHTTPStatus)
			if fe.StatusCode != tc.status {
				t.Errorf("StatusCode: got %d, want %d", fe.StatusCode, tc.status)
			}
		})
	}
}

func TestFetch_ConnectFailure(t *testing.T) {
	f, err := New("http://127.0.0.1:1/", "rpromhub-test", &http.Client{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = f.Fetch(context.Background(), tgt)
	fe := wantKind(t, err, KindTransport)
	if fe.StatusCode != 0 {
		t.Errorf("StatusCode: got %d, want 0", fe.StatusCode)
	}
}

func TestNew_AddsTrailingSlash(t *testing.T) {
	f, err := New("https://ghe.example.com/api/v3", "ua", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := f.client.BaseURL.String(); got != "https://ghe.example.com/api/v3/" {
		t.Errorf("BaseURL: got %q", got)
	}
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2023, 1, 11, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		commit time.Time
		want   int64
	}{
		{"ten days", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 10},
		{"same instant", now, 0},
		{"just under a day", now.Add(-23 * time.Hour), 0},
		{"exactly a day", now.Add(-24 * time.Hour), 1},
		{"just over a day", now.Add(-25 * time.Hour), 1},
		{"one hour ahead", now.Add(time.Hour), -1},
		{"exactly two days ahead", now.Add(48 * time.Hour), -2},
		{"non-UTC zone", time.Date(2023, 1, 1, 2, 0, 0, 0, time.FixedZone("CEST", 2*3600)), 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AgeDays(tc.commit, now); got != tc.want {
				t.Errorf("AgeDays(%v, %v) = %d, want %d", tc.commit, now, got, tc.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if got := KindMissingField.String(); got != "missing_field" {
		t.Errorf("String(): got %q", got)
	}
	if got := Kind(42).String(); got != "kind(42)" {
		t.Errorf("String(): got %q", got)
	}
}
