// Package migrations embeds the sqlite schema migrations applied by
// Store.ApplyMigrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
