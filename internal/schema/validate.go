// Package schema validates ontap configuration files and TAP-Y/J documents
// against the embedded JSON schemas.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/AndreyAkinshin/ontap/internal/errors"
	schemafs "github.com/AndreyAkinshin/ontap/schema"
)

const (
	configSchemaName   = "config.schema.json"
	documentSchemaName = "tapyj.schema.json"
)

var (
	configSchema   *jsonschema.Schema
	documentSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		for _, name := range []string{configSchemaName, documentSchemaName} {
			data, err := schemafs.FS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		var err error
		configSchema, err = compiler.Compile(configSchemaName)
		if err != nil {
			compileErr = fmt.Errorf("compile config schema: %w", err)
			return
		}

		documentSchema, err = compiler.Compile(documentSchemaName)
		if err != nil {
			compileErr = fmt.Errorf("compile document schema: %w", err)
			return
		}
	})

	return compileErr
}

// ValidateConfig validates JSON data against the configuration schema.
func ValidateConfig(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Validation("invalid JSON", err)
	}

	if err := configSchema.Validate(v); err != nil {
		return errors.Validation("config validation failed: "+err.Error(), err)
	}

	return nil
}

// ValidateDocument validates one document. doc may be a *report.Document or
// any value that encodes to a JSON object.
func ValidateDocument(doc any) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	v, err := toJSONValue(doc)
	if err != nil {
		return errors.Validation("document is not JSON-encodable", err)
	}

	if err := documentSchema.Validate(v); err != nil {
		return errors.Validation(fmt.Sprintf("%s document: %v", typeOf(v), err), err)
	}

	return nil
}

// toJSONValue round-trips doc through encoding/json so the validator sees
// the same values a TAP-J consumer would.
func toJSONValue(doc any) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func typeOf(v any) string {
	if m, ok := v.(map[string]any); ok {
		if t, ok := m["type"].(string); ok {
			return t
		}
	}
	return "untyped"
}
