package fieldmap

import "github.com/vvka-141/pgsanitize/pkg/sanitize"

func replace(kind sanitize.Kind) Rule { return Rule{Action: Replace, Kind: kind} }

var deleteRule = Rule{Action: Delete}

// AccountProfile covers the profile attributes of an account.
// The accounts stage generates these values per record so that display_name
// stays consistent with first and last name.
var AccountProfile = NewRegistry("account profile", map[string]Rule{
	"first_name":  replace(sanitize.KindFirstName),
	"last_name":   replace(sanitize.KindLastName),
	"nickname":    replace(sanitize.KindDomainWord),
	"description": replace(sanitize.KindText),
})

// ContactMethods are legacy instant messaging handles. Presence means delete.
var ContactMethods = NewRegistry("contact methods", map[string]Rule{
	"facebook":   deleteRule,
	"googleplus": deleteRule,
	"jabber":     deleteRule,
	"aim":        deleteRule,
	"yim":        deleteRule,
})

// Commerce covers billing, shipping and card attributes stored on
// customers and orders.
var Commerce = NewRegistry("commerce", map[string]Rule{
	"billing_first_name":      replace(sanitize.KindFirstName),
	"billing_last_name":       replace(sanitize.KindLastName),
	"billing_company":         replace(sanitize.KindCompany),
	"billing_email":           replace(sanitize.KindEmail),
	"billing_phone":           replace(sanitize.KindPhone),
	"billing_country":         replace(sanitize.KindCountryCode),
	"billing_address_1":       replace(sanitize.KindStreetAddress),
	"billing_address_2":       replace(sanitize.KindSecondaryAddress),
	"billing_city":            replace(sanitize.KindCity),
	"billing_state":           replace(sanitize.KindStateAbbr),
	"billing_postcode":        replace(sanitize.KindPostcode),
	"shipping_first_name":     replace(sanitize.KindFirstName),
	"shipping_last_name":      replace(sanitize.KindLastName),
	"shipping_full_name":      replace(sanitize.KindName),
	"shipping_company":        replace(sanitize.KindCompany),
	"shipping_phone":          replace(sanitize.KindPhone),
	"shipping_country":        replace(sanitize.KindCountryCode),
	"shipping_address_1":      replace(sanitize.KindStreetAddress),
	"shipping_address_2":      replace(sanitize.KindSecondaryAddress),
	"shipping_city":           replace(sanitize.KindCity),
	"shipping_state":          replace(sanitize.KindStateAbbr),
	"shipping_postcode":       replace(sanitize.KindPostcode),
	"credit_card_holder_name": replace(sanitize.KindName),
	"cc_last_4":               replace(sanitize.KindDigits4),
})

// CommerceColumns maps the columns of the order address table.
var CommerceColumns = NewRegistry("commerce columns", map[string]Rule{
	"first_name": replace(sanitize.KindFirstName),
	"last_name":  replace(sanitize.KindLastName),
	"company":    replace(sanitize.KindCompany),
	"address_1":  replace(sanitize.KindStreetAddress),
	"address_2":  replace(sanitize.KindSecondaryAddress),
	"city":       replace(sanitize.KindCity),
	"state":      replace(sanitize.KindStateAbbr),
	"postcode":   replace(sanitize.KindPostcode),
	"country":    replace(sanitize.KindCountryCode),
	"email":      replace(sanitize.KindEmail),
	"phone":      replace(sanitize.KindPhone),
})
