package migrations

import "embed"

// Files holds the forward-only schema migrations.
//
//go:embed *.sql
var Files embed.FS
