// Package stages implements the units of the sanitization pipeline.
//
// Stage order and names:
//
//	transients    delete cached transients (and purge the object cache)
//	comments      replace author data and body of held comments
//	users         replace account identity, profile and password
//	gravityforms  truncate form submission tables (plugin-gated)
//	woocommerce   replace billing, shipping and card attributes (plugin-gated)
//
// Mandatory stages are always ready. Plugin stages report ready only when
// their plugin is active or its tables exist.
package stages
