package module

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes a module's name, declared version and the URNs of its
// dependencies, so any upstream change yields a new downstream fingerprint.
func Fingerprint(fqn, version string, deps []Module) string {
	urns := make([]string, len(deps))
	for i, d := range deps {
		urns[i] = string(d.URN())
	}
	slices.Sort(urns)

	d := xxhash.New()
	_, _ = d.WriteString(fqn)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(version)
	for _, u := range urns {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(u)
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// NewURN formats mod:<fqn>@<fingerprint>.
func NewURN(fqn, fingerprint string) URN {
	return URN("mod:" + fqn + "@" + fingerprint)
}
