package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FingerprintComponents is the composite hardware identity reported by a
// client machine. CPU and BIOS are immutable identity anchors; the remaining
// components may drift through legitimate hardware changes.
type FingerprintComponents struct {
	CPU     string
	BIOS    string
	RAM     string
	Disk    string
	Display string
}

// Fingerprint is a persisted hardware identity bound to exactly one license.
type Fingerprint struct {
	FingerprintID uuid.UUID
	FingerprintComponents
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate rejects incomplete fingerprints before they reach the policy.
// Component hashes must be present and of uniform length; a client that cannot
// read one of its components must not be allowed to bind a partial identity.
func (c FingerprintComponents) Validate() error {
	fields := map[string]string{
		"cpu":     c.CPU,
		"bios":    c.BIOS,
		"ram":     c.RAM,
		"disk":    c.Disk,
		"display": c.Display,
	}
	length := 0
	for name, value := range fields {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return fmt.Errorf("%w: fingerprint component %s is required", ErrInvalidInput, name)
		}
		if length == 0 {
			length = len(trimmed)
			continue
		}
		if len(trimmed) != length {
			return fmt.Errorf("%w: fingerprint component hashes must be uniform length", ErrInvalidInput)
		}
	}
	return nil
}

// BindDecision is the tagged outcome of a successful policy evaluation.
type BindDecision int

const (
	// BindAnchor records the candidate as the license's first fingerprint.
	BindAnchor BindDecision = iota
	// BindUnchanged means the candidate matches the bound fingerprint exactly.
	BindUnchanged
	// BindReset applies the candidate as a legitimate single-component change
	// and charges one unit of the reset quota.
	BindReset
)

// EvaluateBind is the HWID binding policy. It is pure: rejection produces no
// state change, so callers can run it inside a transaction and commit only on
// success.
//
// Anchor components (CPU, BIOS) changing means a different machine owner, not
// a reset. A single drifted component among RAM/disk/display is an organic
// hardware change and consumes quota. Simultaneous multi-component drift is
// treated as identity mismatch as well.
func EvaluateBind(bound *FingerprintComponents, candidate FingerprintComponents, resetsUsed, maxResets int) (BindDecision, error) {
	if bound == nil {
		return BindAnchor, nil
	}

	var anchors []string
	if bound.CPU != candidate.CPU {
		anchors = append(anchors, "cpu")
	}
	if bound.BIOS != candidate.BIOS {
		anchors = append(anchors, "bios")
	}
	if len(anchors) > 0 {
		return 0, &IdentityMismatchError{Components: anchors}
	}

	var drifted []string
	if bound.RAM != candidate.RAM {
		drifted = append(drifted, "ram")
	}
	if bound.Disk != candidate.Disk {
		drifted = append(drifted, "disk")
	}
	if bound.Display != candidate.Display {
		drifted = append(drifted, "display")
	}

	switch len(drifted) {
	case 0:
		return BindUnchanged, nil
	case 1:
		if resetsUsed >= maxResets {
			return 0, &QuotaExceededError{Used: resetsUsed, Limit: maxResets}
		}
		return BindReset, nil
	default:
		return 0, &IdentityMismatchError{Components: drifted}
	}
}
