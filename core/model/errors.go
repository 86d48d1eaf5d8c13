package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// InputError reports unusable demand input: missing columns, unparseable
// timestamps or an empty series. It is fatal to the site's job only.
type InputError struct {
	Site   string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	msg := "input error"
	if e.Site != "" {
		msg += " for " + e.Site
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

// ConfigError reports invalid competition configuration such as a malformed
// financial year or an unknown optional field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

// DateRuleViolation is returned when a generated set of competition dates
// breaks one of the scheduling rules. It must never be persisted.
type DateRuleViolation struct {
	Rule  string
	Dates string
}

func (e *DateRuleViolation) Error() string {
	return fmt.Sprintf("competition dates violate rule %q: %s", e.Rule, e.Dates)
}

// CheckSiteName rejects site and group names that cannot be used as a
// single directory name under the output directory.
func CheckSiteName(site string) error {
	if site == "." || strings.ContainsAny(site, `/\`) || !filepath.IsLocal(site) {
		return &InputError{Site: site, Reason: fmt.Sprintf("%q is not a valid directory name", site)}
	}
	return nil
}
