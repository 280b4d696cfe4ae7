// Package migrations embebe el esquema SQL aplicado con goose.
package migrations

import "embed"

// FS migraciones goose en orden de versión.
//
//go:embed *.sql
var FS embed.FS
