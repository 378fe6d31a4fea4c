// Package migrations embeds the chatterd schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
