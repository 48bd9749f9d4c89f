// Package migrations embeds the cycle log schema.
package migrations

import "embed"

// FS holds the numbered *.up.sql files.
//
//go:embed *.sql
var FS embed.FS
