// Package migrations embeds the SQL schema migrations so the server binary
// can apply them without a copy of the source tree.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
