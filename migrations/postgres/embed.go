// Package postgres embeds SQL migration files.
package postgres

import "embed"

// AuthFS contains the schema migrations for the auth database.
//
//go:embed auth/*.sql
var AuthFS embed.FS

// AuthDir is the directory within AuthFS where migrations live.
const AuthDir = "auth"
