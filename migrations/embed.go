// Package migrations empaqueta el esquema SQL para goose.
package migrations

import "embed"

// FS contiene los archivos NNNNN_*.sql.
//
//go:embed *.sql
var FS embed.FS
