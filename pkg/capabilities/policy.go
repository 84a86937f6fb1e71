// Package capabilities decides which host functions a program may use.
package capabilities

import (
	"fmt"
	"sort"
)

// Known capabilities.
const (
	IO   = "io"   // writes to the output stream
	Time = "time" // sleeps or reads the clock
	Pure = "pure" // no effects
)

// Known lists every capability a prelude function can declare.
var Known = []string{IO, Pure, Time}

// Policy defines which capabilities are allowed.
// A nil allow set means every capability not explicitly denied.
type Policy struct {
	allowed map[string]bool
	denied  map[string]bool
}

// IsAllowed checks whether a capability is permitted by this policy.
// A nil policy allows everything.
func (p *Policy) IsAllowed(cap string) bool {
	if p == nil {
		return true
	}
	if p.denied[cap] {
		return false
	}
	return p.allowed == nil || p.allowed[cap]
}

// Allowed returns the permitted capabilities among Known, sorted.
func (p *Policy) Allowed() []string {
	var out []string
	for _, cap := range Known {
		if p.IsAllowed(cap) {
			out = append(out, cap)
		}
	}
	sort.Strings(out)
	return out
}

// New builds a policy from allow and deny lists. An empty allow list allows
// everything; deny overrides allow. Unknown capability names are rejected.
func New(allow, deny []string) (*Policy, error) {
	p := &Policy{denied: make(map[string]bool)}

	if len(allow) > 0 {
		p.allowed = make(map[string]bool)
		for _, cap := range allow {
			if err := check(cap); err != nil {
				return nil, err
			}
			p.allowed[cap] = true
		}
	}

	for _, cap := range deny {
		if err := check(cap); err != nil {
			return nil, err
		}
		p.denied[cap] = true
	}

	return p, nil
}

func check(cap string) error {
	for _, known := range Known {
		if cap == known {
			return nil
		}
	}
	return fmt.Errorf("unknown capability %q (known: io, pure, time)", cap)
}

// AllowAll returns a policy that permits all capabilities.
func AllowAll() *Policy {
	return &Policy{}
}

// DenyAll returns a policy that denies all capabilities.
func DenyAll() *Policy {
	return &Policy{allowed: make(map[string]bool)}
}
