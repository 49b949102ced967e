// Package migrations embeds the pipeline's SQL schema migrations for
// bun's migrate.Migrator.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
