package validator

// =============================================================================
// VALIDATOR PHILOSOPHY: CRASH EARLY, CRASH LOUD
// =============================================================================
//
// The CUE schemas are the contract between the compiler and everything that
// consumes its output: the rego lint policy, the .facts.json files other
// tools diff, and the configuration file users write by hand.
//
// Without validation, a renamed field or a null table reaches the policy
// engine as `undefined`, rules stop firing and the monitor looks clean.
//
// With validation the compile stops with "field 'pending' not allowed" or
// "conflicting values 'fatal' and 'error'", naming the exact row.
//
// WHEN VALIDATION FAILS:
// 1. DON'T relax the schema to make the error go away
// 2. DO trace back to the table builder or the config loader and fix it there
// =============================================================================

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed automaton_schema.cue config_schema.cue
var schemaFS embed.FS

// Validator checks values against one definition of an embedded schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
	def    string
}

// NewFactsValidator returns a validator for fact tables (#FactTables).
func NewFactsValidator() (*Validator, error) {
	return newValidator("automaton_schema.cue", "#FactTables")
}

// NewConfigValidator returns a validator for rvgen_ltl.yaml (#Config).
func NewConfigValidator() (*Validator, error) {
	return newValidator("config_schema.cue", "#Config")
}

func newValidator(file, def string) (*Validator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := schemaFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema %s: %w", file, err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", file, schema.Err())
	}

	if d := schema.LookupPath(cue.ParsePath(def)); d.Err() != nil {
		return nil, fmt.Errorf("looking up %s definition: %w", def, d.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
		def:    def,
	}, nil
}

// Definition is the schema definition values are checked against.
func (v *Validator) Definition() string {
	return v.def
}

// Validate checks that data, once marshaled to JSON, conforms to the schema.
// Returns nil if valid, or a detailed error explaining what failed.
func (v *Validator) Validate(data any) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling data to JSON: %w", err)
	}
	return v.ValidateJSON(jsonBytes)
}

// ValidateJSON validates JSON bytes directly against the schema
func (v *Validator) ValidateJSON(jsonBytes []byte) error {
	unified, err := v.unify(jsonBytes)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", v.def, err)
	}
	return nil
}

// ValidationErrors returns one message per schema violation in data
func (v *Validator) ValidationErrors(data any) []string {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}

	unified, err := v.unify(jsonBytes)
	if err != nil {
		return []string{err.Error()}
	}

	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

func (v *Validator) unify(jsonBytes []byte) (cue.Value, error) {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("compiling JSON as CUE: %w", dataValue.Err())
	}
	def := v.schema.LookupPath(cue.ParsePath(v.def))
	return def.Unify(dataValue), nil
}
