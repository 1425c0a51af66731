// Package migrations holds the PostgreSQL schema of the prediction history.
package migrations

import "embed"

// Files are the versioned up/down SQL scripts, named for golang-migrate.
//
//go:embed *.sql
var Files embed.FS
