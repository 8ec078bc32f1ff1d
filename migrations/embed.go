// Package migrations embeds the PostgreSQL schema migrations.
//
// Files are named NNNNNN_name.sql and applied in lexical order. A migration
// may ship a NNNNNN_name_rollback.sql that undoes it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
