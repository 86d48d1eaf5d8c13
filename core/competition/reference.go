package competition

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultLicenceArea is used when no licence area is configured.
const DefaultLicenceArea = "SPEN"

// MaxReferenceLength is the longest reference the competition schema accepts.
const MaxReferenceLength = 40

func keepReferenceChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeReference builds a reference T<yy><mm>[dd]_<area>_<name> that
// matches ^[A-Za-z0-9_]{1,40}$. The name is shortened first; a prefix that
// is already too long is cut as a whole. A day of 0 is omitted.
func SanitizeReference(name, licenceArea string, year, month, day int) string {
	area := keepReferenceChars(licenceArea)
	if area == "" {
		area = DefaultLicenceArea
	}
	prefix := fmt.Sprintf("T%02d%02d", year%100, month)
	if day > 0 {
		prefix += fmt.Sprintf("%02d", day)
	}
	prefix += "_" + area + "_"

	clean := keepReferenceChars(name)
	if room := MaxReferenceLength - len(prefix); len(clean) > room {
		clean = clean[:max(room, 0)]
	}
	ref := prefix + clean
	if len(ref) > MaxReferenceLength {
		ref = ref[:MaxReferenceLength]
	}
	return ref
}

// DefaultMaxConnectionVoltage is used when the nominal voltage is missing or
// out of range.
const DefaultMaxConnectionVoltage = "33"

// MinConnectionVoltage is the fixed minimum connection voltage in kV.
const MinConnectionVoltage = "0.24"

var voltageBrackets = []struct {
	limit float64
	label string
}{
	{0.4, "0.4"}, {6.6, "6.6"}, {11, "11"}, {22, "22"}, {33, "33"}, {66, "66"}, {132, "132"},
}

// MaxConnectionVoltage maps a nominal voltage in kV to the smallest standard
// level that covers it. "HV" means 11 kV. An empty value or one above 132 kV
// yields the default; an unparseable one yields the default and an error.
func MaxConnectionVoltage(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultMaxConnectionVoltage, nil
	}
	if strings.EqualFold(raw, "HV") {
		raw = "11"
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return DefaultMaxConnectionVoltage, fmt.Errorf("nominal voltage %q: %w", raw, err)
	}
	for _, b := range voltageBrackets {
		if v <= b.limit {
			return b.label, nil
		}
	}
	return DefaultMaxConnectionVoltage, nil
}
