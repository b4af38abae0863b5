// Package migrations embeds the goose SQL migrations so the server and
// tests apply the exact schema shipped in the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
