package routing

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/orderbridge/backend/internal/domain/channel"
	"github.com/orderbridge/backend/internal/domain/routing"
)

// usStates maps full US state names (lowercased, diacritics folded) to their
// two-letter codes
var usStates = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY", "district of columbia": "DC",
	"puerto rico": "PR",
}

// caProvinces maps full Canadian province names to their two-letter codes
var caProvinces = map[string]string{
	"alberta": "AB", "british columbia": "BC", "manitoba": "MB",
	"new brunswick": "NB", "newfoundland and labrador": "NL",
	"northwest territories": "NT", "nova scotia": "NS", "nunavut": "NU",
	"ontario": "ON", "prince edward island": "PE", "quebec": "QC",
	"saskatchewan": "SK", "yukon": "YT",
}

// regionTables selects the canonicalization table per country
var regionTables = map[string]map[string]string{
	"US": usStates,
	"CA": caProvinces,
}

// regionCodes holds the valid two-letter codes per country for pass-through
// validation
var regionCodes = map[string]map[string]bool{
	"US": invertTable(usStates),
	"CA": invertTable(caProvinces),
}

func invertTable(table map[string]string) map[string]bool {
	codes := make(map[string]bool, len(table))
	for _, code := range table {
		codes[code] = true
	}
	return codes
}

// countryRequiresRegion reports whether the destination country mandates a
// state/province code
func countryRequiresRegion(countryCode string) bool {
	_, ok := regionTables[countryCode]
	return ok
}

// diacriticFolder strips combining marks so "Québec" canonicalizes like
// "Quebec"
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldDiacritics removes diacritics, falling back to the input on transform
// failure
func foldDiacritics(s string) string {
	folded, _, err := transform.String(diacriticFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// canonicalizeRegion resolves a free-form region string to the country's
// canonical code. Returns the code and whether resolution succeeded.
func canonicalizeRegion(region, countryCode string) (string, bool) {
	region = strings.TrimSpace(region)
	if region == "" {
		return "", false
	}

	table, hasTable := regionTables[countryCode]
	if !hasTable {
		// No canonical form known for this country; keep what the buyer wrote
		return region, true
	}

	upper := strings.ToUpper(region)
	if len(upper) == 2 && regionCodes[countryCode][upper] {
		return upper, true
	}

	key := strings.ToLower(foldDiacritics(region))
	key = strings.Join(strings.Fields(key), " ")
	if code, ok := table[key]; ok {
		return code, true
	}
	return region, false
}

// normalizePhone reformats a free-form phone number to E.164 using the
// destination country as the parsing region
func normalizePhone(phone, countryCode string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	parsed, err := phonenumbers.Parse(phone, countryCode)
	if err != nil {
		return "", fmt.Errorf("unparseable phone number %q: %w", phone, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number %q for country %s", phone, countryCode)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// normalizeAddress canonicalizes the raw recipient address. Failures on
// optional fields become warnings; a missing or unrecognized region for a
// country that requires one is a hard error.
func normalizeAddress(raw channel.RecipientAddress) (routing.NormalizedAddress, []string, error) {
	var warnings []string

	countryCode := strings.ToUpper(strings.TrimSpace(raw.Country))

	normalized := routing.NormalizedAddress{
		Name:         strings.TrimSpace(raw.Name),
		AddressLine1: strings.TrimSpace(raw.AddressLn1),
		AddressLine2: strings.TrimSpace(raw.AddressLn2),
		City:         strings.TrimSpace(raw.City),
		PostalCode:   strings.TrimSpace(raw.PostalCode),
		CountryCode:  countryCode,
	}

	region, ok := canonicalizeRegion(raw.Region, countryCode)
	if ok {
		normalized.Region = region
	} else if countryRequiresRegion(countryCode) {
		return routing.NormalizedAddress{}, warnings,
			fmt.Errorf("region %q is not a recognized state/province for %s", raw.Region, countryCode)
	} else if strings.TrimSpace(raw.Region) != "" {
		normalized.Region = strings.TrimSpace(raw.Region)
		warnings = append(warnings, fmt.Sprintf("region %q left unnormalized", raw.Region))
	}

	phone, err := normalizePhone(raw.Phone, countryCode)
	if err != nil {
		// Phone is optional; the order still ships without one
		warnings = append(warnings, err.Error())
	} else {
		normalized.Phone = phone
	}

	return normalized, warnings, nil
}
