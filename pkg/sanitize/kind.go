package sanitize

import "fmt"

// Kind is the semantic kind of a synthetic value. It is a closed set: every
// kind maps to exactly one generator function in the Generator implementation.
type Kind int

const (
	KindName Kind = iota
	KindFirstName
	KindLastName
	KindUsername
	KindEmail
	KindURL
	KindDomainWord
	KindCompany
	KindPhone
	KindCountryCode
	KindStreetAddress
	KindSecondaryAddress
	KindCity
	KindStateAbbr
	KindPostcode
	KindPassword
	KindWord
	KindText
	KindDigits4
)

var kindNames = [...]string{
	KindName:             "name",
	KindFirstName:        "first_name",
	KindLastName:         "last_name",
	KindUsername:         "username",
	KindEmail:            "email",
	KindURL:              "url",
	KindDomainWord:       "domain_word",
	KindCompany:          "company",
	KindPhone:            "phone",
	KindCountryCode:      "country_code",
	KindStreetAddress:    "street_address",
	KindSecondaryAddress: "secondary_address",
	KindCity:             "city",
	KindStateAbbr:        "state_abbr",
	KindPostcode:         "postcode",
	KindPassword:         "password",
	KindWord:             "word",
	KindText:             "text",
	KindDigits4:          "digits4",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k.IsValid() {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsValid returns true if the Kind is a defined value.
func (k Kind) IsValid() bool {
	return k >= KindName && k <= KindDigits4
}

// Generator produces plausible but fictitious values. Each call returns a
// fresh value; implementations hold no per-row state.
type Generator interface {
	// Generate returns a new value of the given kind.
	Generate(kind Kind) string

	// Text returns free text of at most maxChars characters.
	Text(maxChars int) string
}
