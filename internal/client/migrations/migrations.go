// Package migrations embeds the SQLite schema migrations applied by goose
// when the client opens its local store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
