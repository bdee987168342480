package migrations

import "embed"

// FS contains embedded SQLite migrations for guild storage.
//
//go:embed *.sql
var FS embed.FS
