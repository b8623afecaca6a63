package types

import (
	"encoding/json"
	"fmt"
)

// jsonValue is the self-describing on-disk shape of a Value: a kind tag
// plus a kind-appropriate payload, so a row file is human-inspectable
// without consulting the schema (spec.md §4.5's "portable, human-
// inspectable key/value format"). Mirrors the teacher's data.Row
// MarshalJSON/UnmarshalJSON pattern (internal/domain/data/row.go).
type jsonValue struct {
	Kind  string      `json:"kind"`
	Value interface{} `json:"value,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	jv := jsonValue{Kind: v.Kind.String()}
	switch v.Kind {
	case KindInteger:
		jv.Value = v.Int
	case KindFloat:
		jv.Value = v.Float64
	case KindText:
		jv.Value = v.Text
	case KindDate:
		jv.Value = v.Date.String()
	case KindBoolean:
		jv.Value = v.Bool
	}
	return json.Marshal(jv)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.Kind {
	case "NULL":
		*v = Null
	case "INTEGER":
		n, ok := jv.Value.(float64)
		if !ok {
			return fmt.Errorf("malformed INTEGER value: %v", jv.Value)
		}
		*v = Integer(int64(n))
	case "FLOAT":
		n, ok := jv.Value.(float64)
		if !ok {
			return fmt.Errorf("malformed FLOAT value: %v", jv.Value)
		}
		*v = Float(n)
	case "TEXT":
		s, ok := jv.Value.(string)
		if !ok {
			return fmt.Errorf("malformed TEXT value: %v", jv.Value)
		}
		*v = Text(s)
	case "DATE":
		s, ok := jv.Value.(string)
		if !ok {
			return fmt.Errorf("malformed DATE value: %v", jv.Value)
		}
		d, err := ParseDate(s)
		if err != nil {
			return err
		}
		*v = DateValue(d)
	case "BOOLEAN":
		b, ok := jv.Value.(bool)
		if !ok {
			return fmt.Errorf("malformed BOOLEAN value: %v", jv.Value)
		}
		*v = Boolean(b)
	default:
		return fmt.Errorf("unknown value kind %q", jv.Kind)
	}
	return nil
}
