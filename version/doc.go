// Package version reports the modkit build that produced a run.
//
// The framework version is written into every module's system metadata so
// history entries can be traced back to the engine that wrote them. Values
// are set at build time via -ldflags and otherwise taken from the module's
// embedded build info:
//
//	go build -ldflags "-X github.com/kbukum/modkit/version.Version=1.4.0"
package version
