package database

import _ "embed"

// Schema is the full schema produced by the migrations, for tests and tools
// that want the tables without running golang-migrate.
//
//go:embed sqlc/schema.sql
var Schema string
