package engine

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/securenet/dyngroups/model"
	pdp_model "github.com/securenet/dyngroups/pdp/model"
)

// isFalsy treats absent values, empty strings and lists, zero numbers and
// false as "no value".
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	case []string:
		return len(x) == 0
	case []any:
		return len(x) == 0
	default:
		return false
	}
}

// stringify is the string form used by the string and list operators.
// Booleans render as "true"/"false".
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []string:
		return strings.Join(x, ", ")
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", pdp_model.ErrNumericCast, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", pdp_model.ErrNumericCast, v)
	}
}

func valuesEqual(attr any, value model.RuleValue) bool {
	switch value.Kind {
	case model.ValueString:
		s, ok := attr.(string)
		return ok && s == value.Str
	case model.ValueNumber:
		switch attr.(type) {
		case int, int64, float64:
			f, _ := toFloat(attr)
			return f == value.Num
		}
		return false
	case model.ValueBool:
		b, ok := attr.(bool)
		return ok && b == value.Bool
	case model.ValueList:
		items, ok := attr.([]string)
		return ok && slices.Equal(items, value.List)
	default:
		return attr == nil
	}
}

func stringOperand(value model.RuleValue) (string, error) {
	if value.Kind != model.ValueString {
		return "", fmt.Errorf("%w: expected string, got %s", pdp_model.ErrInvalidRuleValue, value.Kind)
	}
	return value.Str, nil
}

func inList(attr any, list []string) bool {
	switch attr.(type) {
	case nil, []string, []any:
		return false
	}
	return slices.Contains(list, stringify(attr))
}

// compileAnchored compiles pattern so that it only matches at the start of
// the input.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pdp_model.ErrInvalidPattern, err)
	}
	return re, nil
}
