package core

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/language"
)

// PhoneCheck is the result of checking a number against a country.
type PhoneCheck struct {
	Region            string // ISO 3166-1 alpha-2, empty if the country is unknown
	CallingCode       int    // calling code of the country, 0 if unknown
	NumberCallingCode int    // calling code the number itself carries, 0 if unparseable
	Valid             bool
}

// RegionForCountry converts an ISO 3166-1 alpha-3 (or alpha-2) country code
// to its alpha-2 region. ok is false for anything that is not a country.
func RegionForCountry(country string) (string, bool) {
	country = strings.ToUpper(StripSpaces(country))
	if country == "" {
		return "", false
	}
	r, err := language.ParseRegion(country)
	if err != nil || !r.IsCountry() {
		return "", false
	}
	return r.String(), true
}

// CheckNumber validates number in the context of country.
func CheckNumber(country, number string) PhoneCheck {
	var pc PhoneCheck
	region, ok := RegionForCountry(country)
	if ok {
		pc.Region = region
		pc.CallingCode = phonenumbers.GetCountryCodeForRegion(region)
	}

	number = strings.TrimSpace(number)
	if number == "" {
		return pc
	}
	parseRegion := region
	if parseRegion == "" {
		parseRegion = "ZZ"
	}
	num, err := phonenumbers.Parse(number, parseRegion)
	if err != nil {
		return pc
	}
	pc.NumberCallingCode = int(num.GetCountryCode())
	pc.Valid = phonenumbers.IsValidNumber(num)
	return pc
}

// RewriteNumber forces number onto callingCode: "+<callingCode><rest>", where
// rest is the national significant number when the input parses and the
// bare digits without trunk or international prefix otherwise.
func RewriteNumber(number string, callingCode int, region string) string {
	rest := ""
	parseRegion := region
	if parseRegion == "" {
		parseRegion = "ZZ"
	}
	if num, err := phonenumbers.Parse(number, parseRegion); err == nil {
		rest = phonenumbers.GetNationalSignificantNumber(num)
	}
	if rest == "" {
		digits := strings.TrimPrefix(StripPhone(number), "+")
		digits = strings.TrimPrefix(digits, "00")
		rest = strings.TrimLeft(digits, "0")
	}
	return fmt.Sprintf("+%d%s", callingCode, rest)
}

// PhoneFormatMessage is the error text for a number that does not fit its country.
func PhoneFormatMessage(callingCode int) string {
	return fmt.Sprintf("Invalid number. The phone number needs to start with + followed by the country code and be the correct length. In this case the country code is %d", callingCode)
}

// EmailDomainMessage is the error text for an email outside the allow-list.
func EmailDomainMessage(domains []string) string {
	return "Invalid email domain. Only the following domains are allowed: " + strings.Join(domains, ", ")
}

// EntryInitHook is the built-in row hook. It:
//   - checks work and mobile numbers against the row's country, reporting
//     numbers that are invalid or carry another country's calling code and,
//     in clean-up mode, rewriting them onto the country's calling code
//   - rejects email domains outside the allow-list
//   - fills an empty work number from a valid mobile number
func EntryInitHook(row Row, opts HookOptions) (Row, []HookError) {
	out := row.Clone()
	var errs []HookError

	country := toText(out[string(FieldCountry)])
	mobile := toText(out[string(FieldMobileNumber)])

	if mobile != "" {
		baseline := CheckNumber(country, mobile)
		if baseline.CallingCode != 0 {
			for _, f := range []Field{FieldWorkPhoneNumber, FieldMobileNumber} {
				value := toText(out[string(f)])
				if value == "" {
					continue
				}
				check := CheckNumber(country, value)
				mismatch := strings.HasPrefix(value, "+") &&
					check.NumberCallingCode != 0 &&
					check.NumberCallingCode != baseline.CallingCode
				if check.Valid && !mismatch {
					continue
				}
				errs = append(errs, HookError{Field: f, Message: PhoneFormatMessage(baseline.CallingCode)})
				if opts.CleanUp {
					out[string(f)] = RewriteNumber(value, baseline.CallingCode, baseline.Region)
				}
			}
		}
	}

	if email := toText(out[string(FieldEmail)]); email != "" && len(opts.AllowedEmailDomains) > 0 {
		domain := ""
		if at := strings.LastIndex(email, "@"); at >= 0 {
			domain = strings.ToLower(email[at+1:])
		}
		allowed := false
		for _, d := range opts.AllowedEmailDomains {
			if d != "" && strings.Contains(domain, strings.ToLower(d)) {
				allowed = true
				break
			}
		}
		if !allowed {
			errs = append(errs, HookError{Field: FieldEmail, Message: EmailDomainMessage(opts.AllowedEmailDomains)})
		}
	}

	mobile = toText(out[string(FieldMobileNumber)])
	if toText(out[string(FieldWorkPhoneNumber)]) == "" && mobile != "" {
		if CheckNumber(country, mobile).Valid {
			out[string(FieldWorkPhoneNumber)] = mobile
		}
	}

	return out, errs
}
