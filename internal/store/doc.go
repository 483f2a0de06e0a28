// Package store holds the branch-age gauges between scrapes and renders them
// in the Prometheus text exposition format.
package store
