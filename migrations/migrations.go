// Package migrations embeds the goose migrations of the export-service database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
