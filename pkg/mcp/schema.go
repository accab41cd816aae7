package mcp

import (
	"fmt"
	"math"
)

// ValidateArguments checks tool call arguments against the tool's declared
// input schema before the handler runs. The schema dialect is the subset the
// descriptors actually use: an object with typed properties, required names,
// enums, numeric bounds, and defaults. Defaults for absent optional fields are
// filled into the returned map; the input map is not mutated.
//
// A nil or non-object schema validates everything, so tools that declare no
// shape keep their duck-typed behavior.
func ValidateArguments(schema map[string]interface{}, args map[string]interface{}) (normalized map[string]interface{}, err error) {
	normalized = make(map[string]interface{}, len(args))
	for k, v := range args {
		normalized[k] = v
	}

	if schema == nil {
		return normalized, err
	}

	if t, ok := schema["type"].(string); ok && t != "object" {
		return normalized, err
	}

	properties, _ := schema["properties"].(map[string]interface{})

	// Required fields
	if required, ok := schema["required"].([]string); ok {
		for _, name := range required {
			if _, present := normalized[name]; !present {
				err = fmt.Errorf("missing required argument: %s", name)
				return normalized, err
			}
		}
	} else if required, ok := schema["required"].([]interface{}); ok {
		for _, raw := range required {
			name, nameOK := raw.(string)
			if !nameOK {
				continue
			}
			if _, present := normalized[name]; !present {
				err = fmt.Errorf("missing required argument: %s", name)
				return normalized, err
			}
		}
	}

	for name, rawProp := range properties {
		prop, propOK := rawProp.(map[string]interface{})
		if !propOK {
			continue
		}

		value, present := normalized[name]
		if !present {
			if def, hasDefault := prop["default"]; hasDefault {
				normalized[name] = def
			}
			continue
		}

		err = validateValue(name, prop, value)
		if err != nil {
			return normalized, err
		}
	}

	return normalized, err
}

// validateValue checks a single argument against its property declaration.
func validateValue(name string, prop map[string]interface{}, value interface{}) (err error) {
	declaredType, _ := prop["type"].(string)

	switch declaredType {
	case "string":
		s, ok := value.(string)
		if !ok {
			err = fmt.Errorf("argument %s must be a string", name)
			return err
		}
		err = validateEnum(name, prop, s)
		if err != nil {
			return err
		}

	case "integer":
		f, ok := toFloat(value)
		if !ok || f != math.Trunc(f) {
			err = fmt.Errorf("argument %s must be an integer", name)
			return err
		}
		err = validateBounds(name, prop, f)
		if err != nil {
			return err
		}

	case "number":
		f, ok := toFloat(value)
		if !ok {
			err = fmt.Errorf("argument %s must be a number", name)
			return err
		}
		err = validateBounds(name, prop, f)
		if err != nil {
			return err
		}

	case "boolean":
		if _, ok := value.(bool); !ok {
			err = fmt.Errorf("argument %s must be a boolean", name)
			return err
		}

	case "array":
		if _, ok := value.([]interface{}); !ok {
			err = fmt.Errorf("argument %s must be an array", name)
			return err
		}

	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			err = fmt.Errorf("argument %s must be an object", name)
			return err
		}
	}

	return err
}

// validateEnum checks a string value against an enum declaration if present.
func validateEnum(name string, prop map[string]interface{}, value string) (err error) {
	var allowed []string

	switch enum := prop["enum"].(type) {
	case []string:
		allowed = enum
	case []interface{}:
		for _, raw := range enum {
			if s, ok := raw.(string); ok {
				allowed = append(allowed, s)
			}
		}
	default:
		return err
	}

	for _, candidate := range allowed {
		if candidate == value {
			return err
		}
	}

	err = fmt.Errorf("argument %s must be one of %v", name, allowed)
	return err
}

// validateBounds checks numeric minimum/maximum declarations if present.
func validateBounds(name string, prop map[string]interface{}, value float64) (err error) {
	if minRaw, ok := toFloat(prop["minimum"]); ok && value < minRaw {
		err = fmt.Errorf("argument %s must be >= %v", name, minRaw)
		return err
	}

	if maxRaw, ok := toFloat(prop["maximum"]); ok && value > maxRaw {
		err = fmt.Errorf("argument %s must be <= %v", name, maxRaw)
		return err
	}

	return err
}

// toFloat normalizes the numeric types JSON decoding and literal schemas
// produce.
func toFloat(value interface{}) (f float64, ok bool) {
	switch v := value.(type) {
	case float64:
		f, ok = v, true
	case float32:
		f, ok = float64(v), true
	case int:
		f, ok = float64(v), true
	case int64:
		f, ok = float64(v), true
	}
	return f, ok
}
