// Package migrations embeds the SQL migration files for shop.db.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
