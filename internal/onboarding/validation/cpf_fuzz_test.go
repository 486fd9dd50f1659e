//go:build go1.18

package validation

import (
	"testing"

	"viacarona/internal/onboarding/models"
)

// FuzzNationalID checks that arbitrary input never panics and that an
// accepted value always has exactly 11 digits that pass the checksum.
func FuzzNationalID(f *testing.F) {
	f.Add("")
	f.Add("529.982.247-25")
	f.Add("52998224725")
	f.Add("11111111111")
	f.Add("5299822472５")
	f.Add(string([]byte{0x00, 0xff, 0x35}))

	f.Fuzz(func(t *testing.T, input string) {
		v := Validate(models.FieldNationalID, input, Context{})
		if !v.Valid {
			if v.Error == "" {
				t.Errorf("rejected input %q without an error message", input)
			}
			return
		}
		digits := NormalizeNationalID(input)
		if len(digits) != 11 || !ValidCPFChecksum(digits) || allSameDigit(digits) {
			t.Errorf("accepted invalid cpf %q", input)
		}
	})
}

// FuzzBirthDate checks that accepted dates round-trip through the ISO form.
func FuzzBirthDate(f *testing.F) {
	f.Add("29/02/2000")
	f.Add("31/04/1990")
	f.Add("00/00/0000")
	f.Add("1/1/2000")

	f.Fuzz(func(t *testing.T, input string) {
		date, err := ParseBirthDate(input)
		if err != nil {
			return
		}
		iso, err := BirthDateISO(input)
		if err != nil {
			t.Fatalf("parsed %q but iso failed: %v", input, err)
		}
		if iso != date.Format("2006-01-02") {
			t.Errorf("iso mismatch for %q: %s", input, iso)
		}
	})
}
