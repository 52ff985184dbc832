// Package synth produces synthetic replacement values for sanitized fields.
//
// Every value is freshly generated per call; nothing is derived from the
// original data. Emails always use the reserved example.{com,org,net}
// domains so generated addresses can never reach a real mailbox.
//
// Usage:
//
//	gen := synth.New()
//	name := gen.Generate(sanitize.KindName)
//	bio := gen.Text(200)
package synth
