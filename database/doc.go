// Package database manages Bun connections for MySQL, PostgreSQL (lib/pq or
// pgx) and SQLite: connecting, pool tuning, query logging and metrics hooks,
// driver error classification and table creation for registered models.
package database
