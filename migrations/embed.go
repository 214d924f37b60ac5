// Package migrations holds the SQL schema of the connector database
package migrations

import "embed"

// FS contains the golang-migrate migration files
//
//go:embed *.sql
var FS embed.FS
