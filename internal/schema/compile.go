package schema

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compile turns a Definition into a compiled schema.
func compile(def Definition) (*jsonschema.Schema, error) {
	// The jsonschema library expects a parsed JSON value (any), not Go
	// literals with int constraints, so round-trip through JSON.
	defBytes, err := json.Marshal(def.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", def.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return compiled, nil
}

// compileAll compiles every definition keyed the same way.
func compileAll(defs map[string]Definition) (map[string]*jsonschema.Schema, error) {
	out := make(map[string]*jsonschema.Schema, len(defs))
	for key, def := range defs {
		compiled, err := compile(def)
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", def.Name, err)
		}
		out[key] = compiled
	}
	return out, nil
}
