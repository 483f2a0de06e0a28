// Package fetcher reads the age of a branch's most recent commit from the
// GitHub REST API.
//
// Fetch(ctx, target) issues GET repos/{owner}/{repo}/branches/{branch} through
// a go-github client configured with the exporter's base URL and fixed
// User-Agent, reads commit.commit.author.date and returns a Sample holding the
// age in whole days (AgeDays: floor of the elapsed time divided by 24h,
// negative when the commit is dated in the future).
//
// Every failure is a *FetchError whose Kind is one of transport, http_status,
// decode, missing_field or timestamp_parse. The fetcher never writes to the
// metric store; that is the collector's job.
package fetcher
