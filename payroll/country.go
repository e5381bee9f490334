package payroll

import (
	"github.com/biter777/countries"
)

// ISODirectory resolves countries from the ISO 3166 / ISO 4217 tables
// bundled with github.com/biter777/countries.
type ISODirectory struct{}

// NewCountryDirectory returns the ISO-backed directory.
func NewCountryDirectory() ISODirectory {
	return ISODirectory{}
}

// Resolve accepts a two-letter code in any case.
func (ISODirectory) Resolve(code string) (Country, bool) {
	code = NormalizeCountryCode(code)
	if len(code) != 2 {
		return Country{}, false
	}

	c := countries.ByName(code)
	if c == countries.Unknown || !c.IsValid() || c.Alpha2() != code {
		return Country{}, false
	}

	country := Country{Code: code, Name: c.String()}
	if cur := c.Currency(); cur.IsValid() {
		if alpha := cur.Alpha(); len(alpha) == 3 {
			country.CurrencyCode = alpha
		}
	}
	return country, true
}

// StaticDirectory is a fixed lookup table keyed by upper-case code.
type StaticDirectory map[string]Country

func (d StaticDirectory) Resolve(code string) (Country, bool) {
	c, ok := d[NormalizeCountryCode(code)]
	return c, ok
}

var (
	_ CountryDirectory = ISODirectory{}
	_ CountryDirectory = StaticDirectory(nil)
)
