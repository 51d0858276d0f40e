// Package migrations embeds the SQL migrations for the transition journal.
package migrations

import "embed"

// FS holds the embedded migration files, applied in version order by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
