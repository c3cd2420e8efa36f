package customfield

import (
	"strconv"
	"strings"
	"time"

	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/internal/conv"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// Issue custom field and value type tags.
const (
	StateFieldTag     = "StateIssueCustomField"
	EnumFieldTag      = "SingleEnumIssueCustomField"
	MultiEnumFieldTag = "MultiEnumIssueCustomField"
	UserFieldTag      = "SingleUserIssueCustomField"
	MultiUserFieldTag = "MultiUserIssueCustomField"
	TextFieldTag      = "TextIssueCustomField"
	SimpleFieldTag    = "SimpleIssueCustomField"
	DateFieldTag      = "DateIssueCustomField"

	StateElementTag = "StateBundleElement"
	EnumElementTag  = "EnumBundleElement"
	UserTag         = "User"
	PeriodTag       = "PeriodValue"
	TextValueTag    = "TextFieldValue"
)

// PeriodFieldTag is the outer tag used for period values. The tracker has
// accepted the single-enum tag here; override to send PeriodIssueCustomField.
var PeriodFieldTag = EnumFieldTag

// Value is a typed custom field value.
type Value interface {
	// Tag returns the issue custom field $type the value is sent under.
	Tag() string
	// Wire returns the value member of the encoded field.
	Wire() interface{}
	// String returns the caller-facing form of the value.
	String() string
}

type StateValue struct{ Name string }

func (v StateValue) Tag() string { return StateFieldTag }
func (v StateValue) Wire() interface{} {
	return map[string]interface{}{"name": v.Name, "$type": StateElementTag}
}
func (v StateValue) String() string { return v.Name }

type EnumValue struct{ Name string }

func (v EnumValue) Tag() string { return EnumFieldTag }
func (v EnumValue) Wire() interface{} {
	return map[string]interface{}{"name": v.Name, "$type": EnumElementTag}
}
func (v EnumValue) String() string { return v.Name }

type UserValue struct{ Login string }

func (v UserValue) Tag() string { return UserFieldTag }
func (v UserValue) Wire() interface{} {
	return map[string]interface{}{"login": v.Login, "$type": UserTag}
}
func (v UserValue) String() string { return v.Login }

type PeriodValue struct{ Presentation string }

func (v PeriodValue) Tag() string { return PeriodFieldTag }
func (v PeriodValue) Wire() interface{} {
	return map[string]interface{}{"presentation": v.Presentation, "$type": PeriodTag}
}
func (v PeriodValue) String() string { return v.Presentation }

// NumericValue travels as an enum element named after the number.
type NumericValue struct{ Repr string }

func (v NumericValue) Tag() string { return EnumFieldTag }
func (v NumericValue) Wire() interface{} {
	return map[string]interface{}{"name": v.Repr, "$type": EnumElementTag}
}
func (v NumericValue) String() string { return v.Repr }

// NullValue clears a field. FieldTag defaults to the single-enum tag.
type NullValue struct{ FieldTag string }

func (v NullValue) Tag() string {
	if v.FieldTag == "" {
		return EnumFieldTag
	}
	return v.FieldTag
}
func (v NullValue) Wire() interface{} { return nil }
func (v NullValue) String() string    { return "" }

type TextValue struct{ Text string }

func (v TextValue) Tag() string { return TextFieldTag }
func (v TextValue) Wire() interface{} {
	return map[string]interface{}{"text": v.Text, "$type": TextValueTag}
}
func (v TextValue) String() string { return v.Text }

type StringValue struct{ Text string }

func (v StringValue) Tag() string       { return SimpleFieldTag }
func (v StringValue) Wire() interface{} { return v.Text }
func (v StringValue) String() string    { return v.Text }

// DateValue is an epoch millisecond timestamp.
type DateValue struct{ Millis int64 }

func (v DateValue) Tag() string       { return DateFieldTag }
func (v DateValue) Wire() interface{} { return v.Millis }
func (v DateValue) String() string    { return strconv.FormatInt(v.Millis, 10) }

type MultiEnumValue struct{ Names []string }

func (v MultiEnumValue) Tag() string { return MultiEnumFieldTag }
func (v MultiEnumValue) Wire() interface{} {
	items := make([]interface{}, 0, len(v.Names))
	for _, name := range v.Names {
		items = append(items, map[string]interface{}{"name": name, "$type": EnumElementTag})
	}
	return items
}
func (v MultiEnumValue) String() string { return strings.Join(v.Names, listSeparator) }

type MultiUserValue struct{ Logins []string }

func (v MultiUserValue) Tag() string { return MultiUserFieldTag }
func (v MultiUserValue) Wire() interface{} {
	items := make([]interface{}, 0, len(v.Logins))
	for _, login := range v.Logins {
		items = append(items, map[string]interface{}{"login": login, "$type": UserTag})
	}
	return items
}
func (v MultiUserValue) String() string { return strings.Join(v.Logins, listSeparator) }

const listSeparator = ", "

// FieldUpdate is one entry of an issue's customFields update body.
type FieldUpdate struct {
	Type  string      `json:"$type"`
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name,omitempty"`
	Value interface{} `json:"value"`
}

// Encode wraps value for the direct field update API. The field is addressed
// by id when known, else by name.
func Encode(fieldID, name string, value Value) *FieldUpdate {
	update := &FieldUpdate{Type: value.Tag(), ID: fieldID, Value: value.Wire()}
	if fieldID == "" {
		update.Name = name
	}
	return update
}

// NewValue converts a caller supplied value into the variant matching schema.
// A nil schema is treated as an unknown field type.
func NewValue(schema *Schema, raw interface{}) (Value, error) {
	if raw == nil {
		return NullValue{FieldTag: nullTag(schema)}, nil
	}
	fieldType := TypeUnknown
	multi := false
	if schema != nil {
		fieldType, multi = schema.Type, schema.Multi
	}
	text := strings.TrimSpace(conv.AsString(raw))
	switch fieldType {
	case TypeState, TypeStateMachine:
		return StateValue{Name: text}, nil
	case TypeEnum:
		if multi {
			return MultiEnumValue{Names: asStrings(raw)}, nil
		}
		return EnumValue{Name: text}, nil
	case TypeUser:
		return UserValue{Login: text}, nil
	case TypeMultiUser:
		return MultiUserValue{Logins: asStrings(raw)}, nil
	case TypePeriod:
		return PeriodValue{Presentation: text}, nil
	case TypeInteger:
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			return nil, tracker.Validation("value %q is not an integer", text)
		}
		return NumericValue{Repr: text}, nil
	case TypeFloat:
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return nil, tracker.Validation("value %q is not a number", text)
		}
		return NumericValue{Repr: text}, nil
	case TypeDateTime:
		millis, err := ParseMillis(raw)
		if err != nil {
			return nil, err
		}
		return DateValue{Millis: millis}, nil
	case TypeText:
		return TextValue{Text: conv.AsString(raw)}, nil
	case TypeString:
		return StringValue{Text: conv.AsString(raw)}, nil
	}
	if conv.IsNumber(raw) {
		return NumericValue{Repr: text}, nil
	}
	return EnumValue{Name: text}, nil
}

func nullTag(schema *Schema) string {
	if schema == nil {
		return ""
	}
	switch schema.Type {
	case TypeState, TypeStateMachine:
		return StateFieldTag
	case TypeUser:
		return UserFieldTag
	case TypeMultiUser:
		return MultiUserFieldTag
	case TypeDateTime:
		return DateFieldTag
	case TypeText:
		return TextFieldTag
	case TypeString, TypeInteger, TypeFloat:
		return SimpleFieldTag
	case TypeEnum:
		if schema.Multi {
			return MultiEnumFieldTag
		}
	}
	return ""
}

// ParseMillis accepts an integral epoch millisecond value, an RFC 3339
// timestamp or a calendar date.
func ParseMillis(raw interface{}) (int64, error) {
	if millis, ok := conv.AsInt64(raw); ok {
		return millis, nil
	}
	text := strings.TrimSpace(conv.AsString(raw))
	if millis, err := strconv.ParseInt(text, 10, 64); err == nil {
		return millis, nil
	}
	if parsed, err := time.Parse(time.RFC3339, text); err == nil {
		return parsed.UnixMilli(), nil
	}
	if parsed, err := time.Parse(time.DateOnly, text); err == nil {
		return parsed.UnixMilli(), nil
	}
	return 0, tracker.Validation("value %q is neither epoch milliseconds nor an RFC 3339 timestamp", text)
}

func asStrings(raw interface{}) []string {
	var result []string
	switch actual := raw.(type) {
	case []string:
		result = append(result, actual...)
	case []interface{}:
		for _, item := range actual {
			result = append(result, conv.AsString(item))
		}
	default:
		result = strings.Split(conv.AsString(raw), ",")
	}
	names := result[:0]
	for _, name := range result {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Extract renders a custom field value for display: name, then login, then
// text, then presentation. Lists are joined with ", ".
func Extract(value interface{}) string {
	switch actual := value.(type) {
	case nil:
		return ""
	case map[string]interface{}:
		for _, key := range []string{"name", "login", "text", "presentation"} {
			if item, ok := actual[key]; ok && item != nil {
				return conv.AsString(item)
			}
		}
		return ""
	case []interface{}:
		parts := make([]string, 0, len(actual))
		for _, item := range actual {
			parts = append(parts, Extract(item))
		}
		return strings.Join(parts, listSeparator)
	}
	return conv.AsString(value)
}

// Display is a custom field rendered for callers.
type Display struct {
	Name  string      `json:"name"`
	Type  string      `json:"type,omitempty"`
	Value string      `json:"value"`
	Raw   interface{} `json:"raw_value"`
}

// Describe renders issue custom fields in tracker order.
func Describe(fields []*api.CustomField) []*Display {
	result := make([]*Display, 0, len(fields))
	for _, field := range fields {
		result = append(result, &Display{Name: field.Name, Type: field.Type, Value: Extract(field.Value), Raw: field.Value})
	}
	return result
}
