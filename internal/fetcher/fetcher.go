package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/rpromhub/rpromhub/internal/target"
)

const day = 24 * time.Hour

// Sample is the result of one successful fetch. It is consumed immediately by
// the collector and not retained.
type Sample struct {
	Target     target.Target
	AgeDays    int64
	ObservedAt time.Time
}

// Fetcher reads the last-commit date of a branch from the GitHub REST API.
// It is safe for concurrent use; one Fetcher serves every target.
type Fetcher struct {
	client *github.Client
	now    func() time.Time // injectable for deterministic tests
}

// New returns a Fetcher talking to the API rooted at apiURL and identifying
// itself with userAgent. A nil httpClient means http.DefaultClient, which has
// no request timeout.
func New(apiURL, userAgent string, httpClient *http.Client) (*Fetcher, error) {
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("fetcher: parse api url %q: %w", apiURL, err)
	}

	client := github.NewClient(httpClient)
	client.BaseURL = base
	client.UserAgent = userAgent

	return &Fetcher{client: client, now: time.Now}, nil
}

// Fetch performs one GET /repos/{owner}/{repo}/branches/{branch} and returns
// the branch age in whole days. Every failure is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, t target.Target) (*Sample, error) {
	path := fmt.Sprintf("repos/%s/%s/branches/%s",
		url.PathEscape(t.Owner), url.PathEscape(t.Repo), url.PathEscape(t.Branch))

	req, err := f.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Target: t, Err: fmt.Errorf("build request: %w", err)}
	}

	var branch branchInfo
	resp, err := f.client.Do(ctx, req, &branch)
	if err != nil {
		return nil, classify(t, resp, err)
	}

	if branch.Commit == nil || branch.Commit.Commit == nil || branch.Commit.Commit.Author == nil {
		return nil, &FetchError{Kind: KindDecode, Target: t, Err: errors.New("response has no commit.commit.author object")}
	}
	raw := branch.Commit.Commit.Author.Date
	if raw == nil {
		return nil, &FetchError{Kind: KindMissingField, Target: t, Err: errors.New("commit.commit.author.date is absent")}
	}

	committed, err := parseDate(*raw)
	if err != nil {
		return nil, &FetchError{Kind: KindTimestampParse, Target: t, Err: err}
	}

	now := f.now().UTC()
	return &Sample{
		Target:     t,
		AgeDays:    AgeDays(committed, now),
		ObservedAt: now,
	}, nil
}

// branchInfo is the subset of the branch response we read. The date is kept
// raw so that only an RFC 3339 string is accepted; github.Timestamp would
// also take Unix epoch numbers.
type branchInfo struct {
	Commit *struct {
		Commit *struct {
			Author *struct {
				Date *json.RawMessage `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	} `json:"commit"`
}

// parseDate decodes a JSON string holding an RFC 3339 timestamp.
func parseDate(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("date %s is not a string", raw)
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return ts, nil
}

// AgeDays returns floor((now - commit) / 24h). A commit dated after now
// yields a negative age; it is not clamped.
func AgeDays(commit, now time.Time) int64 {
	d := now.UTC().Sub(commit.UTC())
	days := int64(d / day)
	if d%day < 0 {
		days--
	}
	return days
}

// classify maps an error returned by the GitHub client onto a FetchError kind.
// resp is non-nil whenever an HTTP response was received.
func classify(t target.Target, resp *github.Response, err error) *FetchError {
	var (
		errResp   *github.ErrorResponse
		rateErr   *github.RateLimitError
		abuseErr  *github.AbuseRateLimitError
		acceptErr *github.AcceptedError
	)
	switch {
	case errors.As(err, &errResp):
		return &FetchError{Kind: KindHTTPStatus, Target: t, StatusCode: statusOf(errResp.Response), Err: err}
	case errors.As(err, &rateErr):
		return &FetchError{Kind: KindHTTPStatus, Target: t, StatusCode: statusOf(rateErr.Response), Err: err}
	case errors.As(err, &abuseErr):
		return &FetchError{Kind: KindHTTPStatus, Target: t, StatusCode: statusOf(abuseErr.Response), Err: err}
	case errors.As(err, &acceptErr):
		return &FetchError{Kind: KindHTTPStatus, Target: t, StatusCode: http.StatusAccepted, Err: err}
	case resp != nil && resp.Response != nil:
		return &FetchError{Kind: KindDecode, Target: t, StatusCode: resp.StatusCode, Err: err}
	default:
		return &FetchError{Kind: KindTransport, Target: t, Err: err}
	}
}

func statusOf(r *http.Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode
}
