// Package config loads and watches the exporter configuration file.
//
// Top-level types:
//   - Config{Addr, APIURL, UserAgent, Repos} — full config tree parsed from YAML
//   - RepoConfig — owner, repo and the list of tracked branches
//
// Load(path) reads the YAML file, applies defaults (GitHub public API URL and
// the fixed client identity), then validates the listen address, the API URL
// and every repo entry. Targets() flattens repos into one target per branch.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. A reload that fails to parse or
// validate is logged and dropped.
package config
