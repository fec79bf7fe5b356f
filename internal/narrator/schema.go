package narrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
)

// SchemaID is the $id of the proposed-delta schema.
const SchemaID = "https://chaos-dungeon.dev/schemas/proposed-delta.schema.json"

var (
	compileOnce sync.Once
	compiled    *jschema.Schema
	compileErr  error
)

// GenerateSchema returns the JSON Schema a narrator's intent reply must satisfy.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	schema := r.Reflect(&authority.ProposedDelta{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Proposed state delta"
	schema.Description = "The narrator's guess at what one player input changes. Gold and items are advisory only."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

func compiledSchema() (*jschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			compileErr = err
			return
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("failed to parse schema JSON: %w", err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("proposed-delta.json", doc); err != nil {
			compileErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("proposed-delta.json")
	})
	return compiled, compileErr
}

// DecodeProposedDelta validates a JSON reply against the schema and decodes it.
//
// Postcondition: on error the returned delta is empty.
func DecodeProposedDelta(data []byte) (authority.ProposedDelta, error) {
	data = []byte(stripFences(string(data)))
	if len(bytes.TrimSpace(data)) == 0 {
		return authority.ProposedDelta{}, ErrEmptyReply
	}
	sch, err := compiledSchema()
	if err != nil {
		return authority.ProposedDelta{}, fmt.Errorf("failed to compile schema: %w", err)
	}
	inst, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return authority.ProposedDelta{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return authority.ProposedDelta{}, fmt.Errorf("schema validation failed: %w", err)
	}
	var d authority.ProposedDelta
	if err := json.Unmarshal(data, &d); err != nil {
		return authority.ProposedDelta{}, fmt.Errorf("decoding proposed delta: %w", err)
	}
	return d, nil
}
