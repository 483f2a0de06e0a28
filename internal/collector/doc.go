// Package collector fans out one branch-age fetch per target, waits for all of
// them, and records each success in the metric store.
//
// A failed fetch is logged with its owner/repo/branch and error kind and
// leaves the store untouched for that target, so the previous value (if any)
// keeps being exported. Failures never cancel sibling fetches and never fail
// the cycle; Collect returns a Report with the success and failure counts.
package collector
