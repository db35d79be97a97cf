package templates

import "embed"

// Files holds every page, step and partial template.
//
//go:embed *.html
var Files embed.FS
