// Package util holds small helpers shared across packages.
package util

import (
	"crypto/rand"
	"strings"
)

// NewID returns a fresh random identifier, optionally namespaced with a
// prefix ("pitch_...", "issue_...") so ids are recognizable in logs.
func NewID(prefix string) string {
	id := strings.ToLower(rand.Text())
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
