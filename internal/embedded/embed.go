// Package embedded holds the default stream catalog and waiver table compiled
// into the binary.
package embedded

import (
	"embed"
)

// FS embeds the default data files.
//
//go:embed data/*.yaml
var FS embed.FS

// Paths of the embedded data files within FS.
const (
	StreamsFile = "data/streams.yaml"
	WaiversFile = "data/waivers.yaml"
)
