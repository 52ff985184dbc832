package synth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

var safeEmailDomains = []string{"example.com", "example.org", "example.net"}

// Faker generates synthetic values with gofakeit.
type Faker struct {
	f *gofakeit.Faker
}

var _ sanitize.Generator = (*Faker)(nil)

// New creates a Faker with a random seed.
func New() *Faker {
	return NewSeeded(0)
}

// NewSeeded creates a Faker with a fixed seed. A zero seed means random.
func NewSeeded(seed uint64) *Faker {
	return &Faker{f: gofakeit.New(seed)}
}

// Generate returns a new value of the given kind.
// It panics on an undefined kind, which is a programming error.
func (g *Faker) Generate(kind sanitize.Kind) string {
	switch kind {
	case sanitize.KindName:
		return g.f.FirstName() + " " + g.f.LastName()
	case sanitize.KindFirstName:
		return g.f.FirstName()
	case sanitize.KindLastName:
		return g.f.LastName()
	case sanitize.KindUsername:
		return g.Username()
	case sanitize.KindEmail:
		return g.SafeEmail(g.Username())
	case sanitize.KindURL:
		return g.f.DomainName()
	case sanitize.KindDomainWord:
		return strings.ToLower(g.f.Word())
	case sanitize.KindCompany:
		return g.f.Company()
	case sanitize.KindPhone:
		return g.f.Phone()
	case sanitize.KindCountryCode:
		return g.f.CountryAbr()
	case sanitize.KindStreetAddress:
		return g.f.Street()
	case sanitize.KindSecondaryAddress:
		return fmt.Sprintf("Apt. %d", g.f.Number(1, 999))
	case sanitize.KindCity:
		return g.f.City()
	case sanitize.KindStateAbbr:
		return g.f.StateAbr()
	case sanitize.KindPostcode:
		return g.f.Zip()
	case sanitize.KindPassword:
		return g.f.Password(true, true, true, true, false, 16)
	case sanitize.KindWord:
		return g.f.Word()
	case sanitize.KindText:
		return g.Text(sanitize.AccountTextMaxChars)
	case sanitize.KindDigits4:
		return fmt.Sprintf("%04d", g.f.Number(0, 9999))
	default:
		panic(fmt.Sprintf("synth: unsupported kind %s", kind))
	}
}

// Username returns a lower-case login handle made of letters and digits.
func (g *Faker) Username() string {
	var b strings.Builder
	for _, r := range g.f.Username() {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// SafeEmail returns an address for the handle on a reserved example domain.
func (g *Faker) SafeEmail(handle string) string {
	domain := safeEmailDomains[g.f.Number(0, len(safeEmailDomains)-1)]
	return handle + "@" + domain
}

// Text returns one or more sentences of filler words, at most maxChars long.
func (g *Faker) Text(maxChars int) string {
	if maxChars < 5 {
		return ""
	}

	var b strings.Builder
	sentenceLen := 0
	for {
		word := strings.ToLower(g.f.Word())
		if word == "" {
			continue
		}
		if sentenceLen == 0 {
			word = capitalize(word)
		}

		sep := ""
		if b.Len() > 0 {
			sep = " "
		}

		// Reserve one byte for the closing period.
		if b.Len()+len(sep)+len(word)+1 > maxChars {
			break
		}
		b.WriteString(sep)
		b.WriteString(word)
		sentenceLen++

		if sentenceLen >= g.f.Number(6, 12) {
			b.WriteString(".")
			sentenceLen = 0
		}
	}

	if b.Len() == 0 {
		return ""
	}
	if sentenceLen > 0 {
		b.WriteString(".")
	}
	return b.String()
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
