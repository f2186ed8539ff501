package analyzer

import (
	"encoding/json"
	"reflect"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/iammorganparry/feel/internal/models"
)

// GenerateSchema reflects T into a strict JSON schema: every property
// required and no additional properties, with the enumerated values of
// MoodGroup and Animation inlined.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		Mapper:                     enumMapper,
	}
	var v T
	schema := reflector.Reflect(v)
	schemaObj, err := schemaToMap(schema)
	if err != nil {
		panic(err)
	}
	delete(schemaObj, "$schema")
	delete(schemaObj, "$id")
	ensureStrict(schemaObj)
	return schemaObj
}

var (
	moodGroupType = reflect.TypeOf(models.MoodGroup(""))
	animationType = reflect.TypeOf(models.Animation(""))
)

func enumMapper(t reflect.Type) *jsonschema.Schema {
	switch t {
	case moodGroupType:
		s := &jsonschema.Schema{Type: "string"}
		for _, g := range models.MoodGroups {
			s.Enum = append(s.Enum, string(g))
		}
		return s
	case animationType:
		s := &jsonschema.Schema{Type: "string"}
		for _, a := range []models.Animation{
			models.AnimationRotation, models.AnimationZoom, models.AnimationShake,
			models.AnimationBounce, models.AnimationPulse, models.AnimationWiggle,
		} {
			s.Enum = append(s.Enum, string(a))
		}
		return s
	}
	return nil
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func ensureStrict(schema map[string]any) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			sort.Strings(required)
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				ensureStrict(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		ensureStrict(items)
	}
}
