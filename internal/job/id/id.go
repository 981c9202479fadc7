// Package id provides unique identifier generation for split runs.
package id

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	prefix          = "run-"
	timestampLayout = "20060102T150405Z"
	randomLen       = 12
)

// Generate creates a new unique run ID.
// Format: run-<UTC timestamp>-<random hex>
// Example: run-20261017T101500Z-3f9c2a7b41d0
func Generate() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:randomLen]
	return prefix + time.Now().UTC().Format(timestampLayout) + "-" + random
}
