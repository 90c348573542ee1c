package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Ruleset carries operator overrides for the detector set: a replacement
// spam keyword list and an optional threshold override.
type Ruleset struct {
	Keywords  []string `json:"keywords"`
	Threshold int      `json:"threshold"`
}

const rulesetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "keywords": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "threshold": {
      "type": "integer",
      "minimum": 1
    }
  }
}`

// LoadRuleset reads and validates a ruleset override file. The file is
// validated against a schema before use so a malformed ruleset fails at
// startup instead of silently weakening detection.
func LoadRuleset(path string) (Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("failed to read ruleset: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ruleset.schema.json", strings.NewReader(rulesetSchema)); err != nil {
		return Ruleset{}, fmt.Errorf("failed to load ruleset schema: %w", err)
	}
	schema, err := compiler.Compile("ruleset.schema.json")
	if err != nil {
		return Ruleset{}, fmt.Errorf("failed to compile ruleset schema: %w", err)
	}

	var document interface{}
	if err := json.Unmarshal(data, &document); err != nil {
		return Ruleset{}, fmt.Errorf("ruleset is not valid JSON: %w", err)
	}
	if err := schema.Validate(document); err != nil {
		return Ruleset{}, fmt.Errorf("ruleset failed validation: %w", err)
	}

	var ruleset Ruleset
	if err := json.Unmarshal(data, &ruleset); err != nil {
		return Ruleset{}, fmt.Errorf("failed to decode ruleset: %w", err)
	}

	return ruleset, nil
}
