// Package version carries the rawes build version, reported by
// `rawes version` and sent in the HTTP User-Agent.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/rawes/version.Version=1.0.0" ./cmd/rawes
package version
