package routing

// NormalizedAddress is a destination address after validation and
// canonicalization. Region holds a valid state/province code for countries
// that require one; Phone is E.164 or empty.
type NormalizedAddress struct {
	Name         string `validate:"required"`
	AddressLine1 string `validate:"required"`
	AddressLine2 string
	City         string `validate:"required"`
	Region       string
	PostalCode   string
	CountryCode  string `validate:"required,len=2"`
	Phone        string `validate:"omitempty,e164"`
}
