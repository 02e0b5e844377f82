package dispatch

import (
	"math"
	"time"

	"github.com/teemow/deskgate/internal/gateway"
)

// FieldType enumerates the argument types a tool schema can declare.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInt       FieldType = "int"
	TypeBool      FieldType = "bool"
	TypeTimestamp FieldType = "timestamp"
)

// Field describes one argument of a tool schema.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Default     any
	Description string

	// Positive rejects zero and negative values of an int field. Result
	// limits use it so a nonsensical limit fails validation instead of
	// producing a silently empty envelope.
	Positive bool
}

// Schema is the ordered argument list of a tool definition.
type Schema []Field

// Validate checks raw caller arguments against the schema. It coerces values
// to their declared types and applies defaults for omitted optional fields.
// Any violation rejects the call wholesale: the returned error lists every
// offending field and no partial result is produced.
func (s Schema) Validate(args map[string]any) (map[string]any, error) {
	validated := make(map[string]any, len(s))
	var offending []string

	for _, f := range s {
		raw, present := args[f.Name]
		if !present || raw == nil {
			if f.Required {
				offending = append(offending, f.Name)
				continue
			}
			if f.Default != nil {
				validated[f.Name] = f.Default
			}
			continue
		}

		value, ok := coerce(f.Type, raw)
		if !ok {
			offending = append(offending, f.Name)
			continue
		}
		if f.Required && f.Type == TypeString && value.(string) == "" {
			offending = append(offending, f.Name)
			continue
		}
		if f.Positive && f.Type == TypeInt && value.(int) <= 0 {
			offending = append(offending, f.Name)
			continue
		}
		validated[f.Name] = value
	}

	if len(offending) > 0 {
		return nil, gateway.InvalidArgument("invalid tool arguments", offending...)
	}
	return validated, nil
}

// coerce converts a raw JSON-decoded value to the declared field type.
func coerce(t FieldType, raw any) (any, bool) {
	switch t {
	case TypeString:
		v, ok := raw.(string)
		return v, ok
	case TypeInt:
		switch v := raw.(type) {
		case int:
			return v, true
		case int64:
			return int(v), true
		case float64:
			// JSON numbers arrive as float64; reject fractional values.
			if v != math.Trunc(v) {
				return nil, false
			}
			return int(v), true
		}
		return nil, false
	case TypeBool:
		v, ok := raw.(bool)
		return v, ok
	case TypeTimestamp:
		switch v := raw.(type) {
		case time.Time:
			return v, true
		case string:
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, false
			}
			return ts, true
		}
		return nil, false
	}
	return nil, false
}

// StringArg returns the named validated string argument, or "".
func StringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

// IntArg returns the named validated int argument and whether it was set.
func IntArg(args map[string]any, name string) (int, bool) {
	v, ok := args[name].(int)
	return v, ok
}

// TimeArg returns the named validated timestamp argument and whether it was
// set.
func TimeArg(args map[string]any, name string) (time.Time, bool) {
	v, ok := args[name].(time.Time)
	return v, ok
}
