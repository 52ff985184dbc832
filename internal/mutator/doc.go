// Package mutator applies set-based changes to attribute and column tables
// in bounded batches.
//
// Reads page through rows with keyset pagination (id > last ORDER BY id
// LIMIT n) and writes one statement per batch, so memory stays bounded on
// tables with millions of rows. Table and column names are quoted with
// pgx.Identifier; values are always bound parameters.
//
// Every operation is idempotent with respect to its selection: rows that are
// empty or already deleted are simply not selected again.
package mutator
