package stages

import (
	"strings"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Stage names, in pipeline order.
const (
	NameTransients   = "transients"
	NameComments     = "comments"
	NameUsers        = "users"
	NameGravityForms = "gravityforms"
	NameWooCommerce  = "woocommerce"
)

// Order lists the stage names in the order the pipeline runs them.
var Order = []string{NameTransients, NameComments, NameUsers, NameGravityForms, NameWooCommerce}

// Options tunes the record-oriented stages.
type Options struct {
	BatchSize            int
	ProgressEvery        int
	PreserveDomains      []string
	ExcludedCommentTypes []string
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = sanitize.DefaultBatchSize
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = sanitize.DefaultProgressEvery
	}
	return o
}

// IdentityGenerator is a Generator that can also build an email address for
// a given handle.
type IdentityGenerator interface {
	sanitize.Generator
	SafeEmail(handle string) string
}

// PasswordHasher hashes a plaintext password for storage.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// hasDomain reports whether email belongs to one of domains, compared
// case-insensitively on the part after the last '@'.
func hasDomain(email string, domains []string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	host := email[at+1:]
	for _, d := range domains {
		d = strings.TrimPrefix(strings.TrimSpace(d), "@")
		if d != "" && strings.EqualFold(host, d) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
