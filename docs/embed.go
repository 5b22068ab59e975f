// Copyright © 2024 The nxt authors

// Package docs embeds the nxt user guide for use by the CLI.
package docs

import _ "embed"

//go:embed guide.md
var Guide string
