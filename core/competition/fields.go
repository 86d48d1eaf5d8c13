package competition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/firmflex/core/model"
)

// ConfigMode selects which optional fields a competition carries.
type ConfigMode string

const (
	RequiredOnly ConfigMode = "required_only"
	Standard     ConfigMode = "standard"
	Custom       ConfigMode = "custom"
)

// ParseConfigMode validates a configured mode. Empty means Standard.
func ParseConfigMode(s string) (ConfigMode, error) {
	switch ConfigMode(s) {
	case RequiredOnly, Standard, Custom:
		return ConfigMode(s), nil
	case "":
		return Standard, nil
	default:
		return "", &model.ConfigError{Field: "config_mode", Reason: fmt.Sprintf("unknown mode %q", s)}
	}
}

// FieldLevel is where an optional field lives in a competition record.
type FieldLevel string

const (
	RootLevel   FieldLevel = "root"
	WindowLevel FieldLevel = "service_window"
)

// FieldInfo describes an optional field.
type FieldInfo struct {
	Name        string
	Description string
	Level       FieldLevel
}

var optionalFields = []FieldInfo{
	{"contact", "The email address for competition-related communications", RootLevel},
	{"archive_on", "Date and time at which the Competition archives", RootLevel},
	{"dps_record_reference", "Reference to a previously uploaded DPS Record", RootLevel},
	{"product_type", "Branded names for service products", RootLevel},
	{"minimum_connection_voltage", "Minimum voltage level in KV", RootLevel},
	{"maximum_connection_voltage", "Maximum voltage level in KV", RootLevel},
	{"minimum_budget", "The minimum budget value per year, in £ GBP", RootLevel},
	{"maximum_budget", "The maximum budget value per year, in £ GBP", RootLevel},
	{"availability_guide_price", "Guide price for Availability (£/MW/h or £/MVAr/h)", RootLevel},
	{"utilisation_guide_price", "Guide price for Utilisation (£/MW/h or £/MVAr/h)", RootLevel},
	{"service_fee", "Annual fee paid for capacity (£/MW/year or £/MVAr/year)", RootLevel},
	{"pricing_type", "Determines if prices are fixed or part of bid", RootLevel},
	{"public_holiday_handling", "Designation of public holidays to be included or excluded", WindowLevel},
	{"minimum_run_time", "Minimum time required of the asset to provide flexibility", WindowLevel},
	{"required_response_time", "Time within which an Asset must respond to a utilisation request", WindowLevel},
	{"dispatch_estimate", "The estimated number of Dispatch events expected during the Service Period", WindowLevel},
	{"dispatch_duration", "The estimated duration of each Dispatch event", WindowLevel},
}

var standardFields = []string{
	"product_type",
	"minimum_connection_voltage",
	"maximum_connection_voltage",
	"dps_record_reference",
	"public_holiday_handling",
}

// RequiredFields are always present on a competition.
var RequiredFields = []string{
	"reference", "name", "open", "closed", "area_buffer",
	"qualification_open", "qualification_closed", "boundary",
	"need_type", "type", "need_direction", "power_type", "service_periods",
}

// Field returns the metadata of an optional field.
func Field(name string) (FieldInfo, bool) {
	return lo.Find(optionalFields, func(f FieldInfo) bool { return f.Name == name })
}

// Fields returns the metadata of every optional field sorted by name.
func Fields() []FieldInfo {
	out := append([]FieldInfo(nil), optionalFields...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Selection holds the optional fields chosen for each level.
type Selection struct {
	Root   []string `json:"root_fields" yaml:"root_fields"`
	Window []string `json:"service_window_fields" yaml:"service_window_fields"`
}

// Has reports whether name is selected at level.
func (s Selection) Has(level FieldLevel, name string) bool {
	if level == WindowLevel {
		return lo.Contains(s.Window, name)
	}
	return lo.Contains(s.Root, name)
}

func (s *Selection) add(names ...string) error {
	for _, n := range names {
		f, ok := Field(n)
		if !ok {
			return &model.ConfigError{Field: "custom_fields", Reason: fmt.Sprintf("invalid optional field %q", n)}
		}
		switch f.Level {
		case RootLevel:
			s.Root = append(s.Root, n)
		case WindowLevel:
			s.Window = append(s.Window, n)
		}
	}
	s.Root = lo.Uniq(s.Root)
	s.Window = lo.Uniq(s.Window)
	sort.Strings(s.Root)
	sort.Strings(s.Window)
	return nil
}

// SelectFields returns the optional fields for a mode. Custom names are
// checked against the known optional fields and placed at their level.
func SelectFields(mode ConfigMode, custom []string) (Selection, error) {
	var sel Selection
	var err error
	switch mode {
	case RequiredOnly:
		err = sel.add("minimum_connection_voltage", "maximum_connection_voltage")
	case Standard:
		err = sel.add(standardFields...)
	case Custom:
		err = sel.add(custom...)
	default:
		err = &model.ConfigError{Field: "config_mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}
	return sel, err
}

// LoadCustomFields reads a field selection from a JSON or YAML file with
// root_fields and service_window_fields lists. Every name must exist and sit
// at the level it is listed under.
func LoadCustomFields(path string) (Selection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Selection{}, err
	}
	var raw Selection
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &raw)
	case ".json":
		err = json.Unmarshal(b, &raw)
	default:
		return Selection{}, fmt.Errorf("unsupported custom fields format: %s", ext)
	}
	if err != nil {
		return Selection{}, fmt.Errorf("decode %s: %w", path, err)
	}
	for _, pair := range []struct {
		level FieldLevel
		names []string
	}{{RootLevel, raw.Root}, {WindowLevel, raw.Window}} {
		for _, n := range pair.names {
			if f, ok := Field(n); ok && f.Level != pair.level {
				return Selection{}, &model.ConfigError{
					Field:  "custom_fields",
					Reason: fmt.Sprintf("%q is a %s field, listed under %s", n, f.Level, pair.level),
				}
			}
		}
	}
	var sel Selection
	if err := sel.add(append(raw.Root, raw.Window...)...); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// UIField is one entry of the optional field template.
type UIField struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	Level              string `json:"level"`
	IncludedInStandard bool   `json:"included_in_standard"`
	Selected           bool   `json:"selected"`
}

// UITemplate lists every optional field for a configuration front end.
type UITemplate struct {
	OptionalFields []UIField `json:"optional_fields"`
}

// NewUITemplate returns the optional field template with the standard
// fields preselected.
func NewUITemplate() UITemplate {
	return UITemplate{OptionalFields: lo.Map(Fields(), func(f FieldInfo, _ int) UIField {
		std := lo.Contains(standardFields, f.Name)
		return UIField{
			Name:               f.Name,
			Description:        f.Description,
			Level:              string(f.Level),
			IncludedInStandard: std,
			Selected:           std,
		}
	})}
}
