// Package handler implements the scrape endpoint.
//
// New(registry, collector, store) returns an http.Handler that, for any path
// and method:
//   - runs collector.Collect over the registry's current targets and waits
//     for it to finish
//   - renders the metric store in the Prometheus text format
//   - responds 200 with the text-format Content-Type, even when every fetch
//     failed or no targets are configured
//
// The request context is handed to Collect. A scraper that disconnects or
// times out cancels the fetches still in flight; they count as transport
// failures and the store keeps its previous values for those targets.
//
// Only a failure to render the store itself yields a 500.
package handler
