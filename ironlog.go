// Package ironlog embeds build-time assets for the binaries.
package ironlog

import _ "embed"

// DefaultPlan is the built-in weekly plan, used unless a plan file is
// configured.
//
//go:embed plan.yaml
var DefaultPlan []byte
