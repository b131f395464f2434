// Package jsontree walks loosely typed JSON documents. Lookups accept several
// candidate keys and report absence with nil instead of zero values, so
// callers can tell "not provided" apart from an explicit 0, false or "".
package jsontree

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

// codec is frozen once at init and shared by every parse. Numbers decode as
// json.Number so 64-bit ids keep full precision.
var codec = sonic.Config{
	UseNumber:      true,
	CopyString:     true,
	ValidateString: true,
}.Froze()

// Codec exposes the shared process-wide codec.
func Codec() sonic.API {
	return codec
}

var ErrInvalidDocument = crerr.New("invalid json document")

// Node wraps one decoded JSON value. The zero Node is JSON null.
type Node struct {
	value any
}

// Parse decodes raw into a Node.
func Parse(raw []byte) (Node, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Node{}, crerr.Wrap(ErrInvalidDocument, "empty body")
	}
	var out any
	if err := codec.Unmarshal(raw, &out); err != nil {
		return Node{}, crerr.Mark(crerr.Wrap(err, "decode json"), ErrInvalidDocument)
	}
	return Node{value: out}, nil
}

// Wrap turns an already decoded value into a Node.
func Wrap(v any) Node {
	return Node{value: v}
}

func (n Node) Raw() any {
	return n.value
}

func (n Node) IsNull() bool {
	return n.value == nil
}

func (n Node) IsObject() bool {
	_, ok := n.value.(map[string]any)
	return ok
}

func (n Node) IsArray() bool {
	_, ok := n.value.([]any)
	return ok
}

// JSON re-encodes the node with the shared codec.
func (n Node) JSON() (string, error) {
	if n.value == nil {
		return "null", nil
	}
	out, err := codec.MarshalToString(n.value)
	if err != nil {
		return "", crerr.Wrap(err, "encode json")
	}
	return out, nil
}

// Lookup returns the first candidate key that is present and not null.
func (n Node) Lookup(keys ...string) Node {
	obj, ok := n.value.(map[string]any)
	if !ok {
		return Node{}
	}
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return Node{value: v}
		}
	}
	return Node{}
}

// Get resolves a snake_case field name, trying the camelCase spelling first.
func (n Node) Get(name string) Node {
	return n.Lookup(Variants(name)...)
}

// Path walks nested snake_case field names.
func (n Node) Path(names ...string) Node {
	cur := n
	for _, name := range names {
		cur = cur.Get(name)
		if cur.IsNull() {
			return Node{}
		}
	}
	return cur
}

// Items returns the elements of an array node, or nil.
func (n Node) Items() []Node {
	arr, ok := n.value.([]any)
	if !ok {
		return nil
	}
	out := make([]Node, 0, len(arr))
	for _, item := range arr {
		out = append(out, Node{value: item})
	}
	return out
}

// Collection finds a record list in a payload that may be a bare array or an
// object holding the list under one of the given keys, tried in order. The
// second result is false when no recognised shape matched.
func (n Node) Collection(keys ...string) ([]Node, bool) {
	if n.IsArray() {
		return n.Items(), true
	}
	for _, key := range keys {
		child := n.Get(key)
		if child.IsArray() {
			return child.Items(), true
		}
	}
	return nil, false
}

// Entries returns object members in unspecified order.
func (n Node) Entries() map[string]Node {
	obj, ok := n.value.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]Node, len(obj))
	for key, value := range obj {
		out[key] = Node{value: value}
	}
	return out
}

func (n Node) String(name string) *string {
	return n.StringAny(Variants(name)...)
}

func (n Node) Int(name string) *int64 {
	return n.IntAny(Variants(name)...)
}

func (n Node) Float(name string) *float64 {
	return n.FloatAny(Variants(name)...)
}

func (n Node) Bool(name string) *bool {
	return n.BoolAny(Variants(name)...)
}

func (n Node) Time(name string) *time.Time {
	return n.TimeAny(Variants(name)...)
}

// Text returns a trimmed string field or "" when absent.
func (n Node) Text(name string) string {
	if v := n.String(name); v != nil {
		return *v
	}
	return ""
}

func (n Node) StringAny(keys ...string) *string {
	for _, key := range keys {
		if v := n.Lookup(key).AsString(); v != nil {
			return v
		}
	}
	return nil
}

func (n Node) IntAny(keys ...string) *int64 {
	for _, key := range keys {
		if v := n.Lookup(key).AsInt(); v != nil {
			return v
		}
	}
	return nil
}

func (n Node) FloatAny(keys ...string) *float64 {
	for _, key := range keys {
		if v := n.Lookup(key).AsFloat(); v != nil {
			return v
		}
	}
	return nil
}

func (n Node) BoolAny(keys ...string) *bool {
	for _, key := range keys {
		if v := n.Lookup(key).AsBool(); v != nil {
			return v
		}
	}
	return nil
}

func (n Node) TimeAny(keys ...string) *time.Time {
	for _, key := range keys {
		if v := n.Lookup(key).AsTime(); v != nil {
			return v
		}
	}
	return nil
}

// AsString converts scalars to a trimmed string. Objects and arrays are absent.
func (n Node) AsString() *string {
	switch typed := n.value.(type) {
	case string:
		v := strings.TrimSpace(typed)
		return &v
	case json.Number:
		v := typed.String()
		return &v
	case float64:
		v := strconv.FormatFloat(typed, 'f', -1, 64)
		return &v
	case bool:
		v := strconv.FormatBool(typed)
		return &v
	default:
		return nil
	}
}

// AsInt accepts integral numbers and numeric strings. Fractional numbers are
// truncated toward zero.
func (n Node) AsInt() *int64 {
	switch typed := n.value.(type) {
	case json.Number:
		if v, err := typed.Int64(); err == nil {
			return &v
		}
		if f, err := typed.Float64(); err == nil {
			v := int64(f)
			return &v
		}
	case float64:
		v := int64(typed)
		return &v
	case int64:
		v := typed
		return &v
	case int:
		v := int64(typed)
		return &v
	case string:
		trimmed := strings.TrimSpace(typed)
		if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return &v
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			v := int64(f)
			return &v
		}
	}
	return nil
}

func (n Node) AsFloat() *float64 {
	switch typed := n.value.(type) {
	case json.Number:
		if v, err := typed.Float64(); err == nil {
			return &v
		}
	case float64:
		v := typed
		return &v
	case int64:
		v := float64(typed)
		return &v
	case int:
		v := float64(typed)
		return &v
	case string:
		if v, err := strconv.ParseFloat(strings.TrimSpace(typed), 64); err == nil {
			return &v
		}
	}
	return nil
}

// AsBool accepts JSON booleans, "true"/"false" style strings and 0/1 numbers.
func (n Node) AsBool() *bool {
	switch typed := n.value.(type) {
	case bool:
		v := typed
		return &v
	case string:
		if v, err := strconv.ParseBool(strings.TrimSpace(typed)); err == nil {
			return &v
		}
	case json.Number:
		if i, err := typed.Int64(); err == nil && (i == 0 || i == 1) {
			v := i == 1
			return &v
		}
	case float64:
		if typed == 0 || typed == 1 {
			v := typed == 1
			return &v
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
}

// AsTime accepts common timestamp layouts and unix seconds. Parsed values are
// normalised to UTC.
func (n Node) AsTime() *time.Time {
	switch typed := n.value.(type) {
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				v := parsed.UTC()
				return &v
			}
		}
		if secs, err := strconv.ParseInt(trimmed, 10, 64); err == nil && secs > 0 {
			v := time.Unix(secs, 0).UTC()
			return &v
		}
	case json.Number:
		if secs, err := typed.Int64(); err == nil && secs > 0 {
			v := time.Unix(secs, 0).UTC()
			return &v
		}
	case float64:
		if typed > 0 {
			v := time.Unix(int64(typed), 0).UTC()
			return &v
		}
	}
	return nil
}

// Variants lists the spellings tried for a snake_case field name, camelCase
// first.
func Variants(snake string) []string {
	camel := toCamel(snake)
	if camel == snake {
		return []string{snake}
	}
	return []string{camel, snake}
}

func toCamel(snake string) string {
	if !strings.Contains(snake, "_") {
		return snake
	}
	parts := strings.Split(snake, "_")
	var b strings.Builder
	b.Grow(len(snake))
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Keys expands several snake_case names into their lookup spellings, keeping
// name priority and camelCase-before-snake_case within each name.
func Keys(names ...string) []string {
	out := make([]string, 0, len(names)*2)
	for _, name := range names {
		out = append(out, Variants(name)...)
	}
	return out
}
