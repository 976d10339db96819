// Package version reports the build that produced the running binary.
//
// Release builds set Version through the linker:
//
//	go build -ldflags "-X github.com/kbukum/mlopskit/version.Version=v0.3.0" ./cmd/churnctl
//
// Commit and dirty state come from the VCS stamp the Go toolchain embeds.
package version
