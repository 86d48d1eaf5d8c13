// Package schema checks competitions against the published competition
// JSON Schema.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/kilianp07/firmflex/core/competition"
	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/model"
)

// ValidationError describes why one competition does not conform.
type ValidationError struct {
	CompetitionIndex int      `json:"competition_index"`
	CompetitionName  string   `json:"competition_name"`
	ErrorMessage     string   `json:"error_message"`
	ErrorPath        []string `json:"error_path"`
	SchemaPath       []string `json:"schema_path"`
}

// Validator holds a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
	log    logger.Logger
}

// Load compiles the schema at path.
func Load(path string, log logger.Logger) (*Validator, error) {
	sch, err := jsonschema.NewCompiler().Compile(path)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", path, err)
	}
	return &Validator{schema: sch, log: logger.OrNop(log)}, nil
}

// Validate checks each competition on its own, in its persisted form. A
// competition that cannot be encoded is reported as an error entry.
func (v *Validator) Validate(comps []model.Competition) []ValidationError {
	var out []ValidationError
	for i, c := range competition.Strip(comps) {
		name := c.Name
		if name == "" {
			name = "Unnamed"
		}
		if err := v.validateOne(c); err != nil {
			out = append(out, toValidationError(i, name, err))
		}
	}
	if len(out) > 0 {
		v.log.Warnf("%d of %d competitions failed schema validation", len(out), len(comps))
	} else {
		v.log.Debugf("%d competitions passed schema validation", len(comps))
	}
	return out
}

func (v *Validator) validateOne(c model.Competition) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return err
	}
	return v.schema.Validate(inst)
}

func toValidationError(idx int, name string, err error) ValidationError {
	out := ValidationError{CompetitionIndex: idx, CompetitionName: name, ErrorMessage: err.Error()}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return out
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	out.ErrorMessage = strings.TrimSpace(leaf.Error())
	out.ErrorPath = append([]string{}, leaf.InstanceLocation...)
	out.SchemaPath = schemaPath(leaf)
	return out
}

func schemaPath(e *jsonschema.ValidationError) []string {
	path := []string{}
	if _, frag, ok := strings.Cut(e.SchemaURL, "#"); ok {
		for _, p := range strings.Split(frag, "/") {
			if p != "" {
				path = append(path, p)
			}
		}
	}
	if e.ErrorKind != nil {
		path = append(path, e.ErrorKind.KeywordPath()...)
	}
	return path
}

// ValidateFile loads the schema at path and validates comps against it. A
// schema that cannot be loaded skips validation and yields no errors.
func ValidateFile(path string, comps []model.Competition, log logger.Logger) []ValidationError {
	log = logger.OrNop(log)
	if path == "" {
		log.Debugf("no schema configured, skipping validation")
		return nil
	}
	v, err := Load(path, log)
	if err != nil {
		log.Warnf("skipping schema validation: %v", err)
		return nil
	}
	return v.Validate(comps)
}
