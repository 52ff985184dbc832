// Package wordpress reads and writes the WordPress-shaped tables the
// sanitizer works on: accounts and their attribute entries, comments, site
// options and the plugin registry.
//
// Table names carry a configurable prefix (Schema). All statements are
// parameterized; identifiers are quoted with pgx.Identifier.
package wordpress
