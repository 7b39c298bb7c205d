// Package version reports the trainlog build version.
//
// Version and GitCommit are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/trainlog/version.Version=1.2.0" ./cmd/trainlog-report
//
// Unset values fall back to the module build info recorded by the Go
// toolchain.
package version
