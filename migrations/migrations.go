// Package migrations embeds the schema migrations so the migrator does not
// depend on the server's working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
