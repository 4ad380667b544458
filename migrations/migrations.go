// Package migrations embeds the goose SQL migrations for the catalogue replica.
package migrations

import "embed"

//go:embed *.sql
var MigrationsFS embed.FS
