// Package version reports build information for the primes command.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/primesieve/version.Version=1.0.0" ./cmd/primes
//
// Unset fields fall back to the VCS stamp the Go toolchain embeds.
package version
