// Package migrations embeds the SQL schema files so binaries and tests can
// apply them without relying on the working directory.
package migrations

import "embed"

// FS holds every NNNNNN_name.{up,down}.sql file.
//
//go:embed *.sql
var FS embed.FS
