// Package migrations embeds the SQL schema files into the binary.
package migrations

import (
	"embed"

	"github.com/micom7/graph/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

// Register points the database package at the embedded schema. Call it
// before the first Migrate.
func Register() {
	database.Source = files
	database.SourceDir = "."
}
