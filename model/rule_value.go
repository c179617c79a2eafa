package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a RuleValue.
type ValueKind string

const (
	ValueNull   ValueKind = "null"
	ValueString ValueKind = "string"
	ValueNumber ValueKind = "number"
	ValueBool   ValueKind = "bool"
	ValueList   ValueKind = "list"
)

// RuleValue is the comparison value of a rule: a string, number, boolean,
// list of strings or null. It is stored as JSON text.
type RuleValue struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []string
}

func StringValue(s string) RuleValue {
	return RuleValue{Kind: ValueString, Str: s}
}

func NumberValue(n float64) RuleValue {
	return RuleValue{Kind: ValueNumber, Num: n}
}

func BoolValue(b bool) RuleValue {
	return RuleValue{Kind: ValueBool, Bool: b}
}

func ListValue(items ...string) RuleValue {
	if items == nil {
		items = []string{}
	}
	return RuleValue{Kind: ValueList, List: items}
}

func NullValue() RuleValue {
	return RuleValue{Kind: ValueNull}
}

// IsNull reports whether the value is null. The zero RuleValue is null.
func (v RuleValue) IsNull() bool {
	return v.Kind == "" || v.Kind == ValueNull
}

// Interface returns the value as a plain Go value.
func (v RuleValue) Interface() any {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return v.Num
	case ValueBool:
		return v.Bool
	case ValueList:
		return v.List
	default:
		return nil
	}
}

func (v RuleValue) String() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueList:
		return "[" + strings.Join(v.List, ", ") + "]"
	default:
		return "null"
	}
}

func (v RuleValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *RuleValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode rule value: %w", err)
	}

	switch val := raw.(type) {
	case nil:
		*v = NullValue()
	case string:
		*v = StringValue(val)
	case float64:
		*v = NumberValue(val)
	case bool:
		*v = BoolValue(val)
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			switch elem := item.(type) {
			case string:
				items = append(items, elem)
			case float64:
				items = append(items, strconv.FormatFloat(elem, 'f', -1, 64))
			case bool:
				items = append(items, strconv.FormatBool(elem))
			default:
				return fmt.Errorf("unsupported list element %T in rule value", item)
			}
		}
		*v = ListValue(items...)
	default:
		return fmt.Errorf("unsupported rule value type %T", raw)
	}
	return nil
}

// Value implements driver.Valuer.
func (v RuleValue) Value() (driver.Value, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (v *RuleValue) Scan(src any) error {
	switch data := src.(type) {
	case nil:
		*v = NullValue()
		return nil
	case []byte:
		return v.UnmarshalJSON(data)
	case string:
		return v.UnmarshalJSON([]byte(data))
	default:
		return fmt.Errorf("cannot scan %T into RuleValue", src)
	}
}

func (RuleValue) GormDataType() string {
	return "text"
}
