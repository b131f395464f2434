// Package normalizer converts raw guild API bodies into domain records. It
// never returns errors: malformed records are skipped with a log line, and
// full-set readers report an unparsable payload as not ok so callers can keep
// what they already stored.
package normalizer

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/guildsync/internal/domain/raider"
	"github.com/riskibarqy/guildsync/internal/domain/team"
	"github.com/riskibarqy/guildsync/internal/metrics"
	"github.com/riskibarqy/guildsync/internal/platform/jsontree"
	"github.com/riskibarqy/guildsync/internal/platform/logging"
)

const (
	PayloadRoster           = "roster"
	PayloadTeam             = "team"
	PayloadPeriod           = "period"
	PayloadLootHistory      = "loot_history"
	PayloadWishlists        = "wishlists"
	PayloadWishlist         = "wishlist"
	PayloadAttendance       = "attendance"
	PayloadRaids            = "raids"
	PayloadRaid             = "raid"
	PayloadHistoricalData   = "historical_data"
	PayloadCharacterHistory = "character_history"
	PayloadGuests           = "guests"
	PayloadApplications     = "applications"
	PayloadApplication      = "application"
)

// Defaults fill character realm and region when a record leaves them blank.
type Defaults struct {
	Realm  string
	Region string
}

// DefaultsFromTeam derives Defaults from optional team metadata.
func DefaultsFromTeam(meta *team.Metadata) Defaults {
	if meta == nil {
		return Defaults{}
	}
	return Defaults{Realm: meta.Realm, Region: meta.Region}
}

type Normalizer struct {
	logger   *logging.Logger
	validate *validator.Validate
}

func New(logger *logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Normalizer{
		logger:   logger.Named("normalizer"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// characterCheck guards records that must name a character somehow.
type characterCheck struct {
	ExternalID *int64 `validate:"required_without=Name"`
	Name       string `validate:"required_without=ExternalID,max=128"`
}

type namedCheck struct {
	Name string `validate:"required,max=128"`
}

type idCheck struct {
	ID *int64 `validate:"required"`
}

// document parses raw. A failure is logged and reported as not ok.
func (n *Normalizer) document(ctx context.Context, payload string, raw []byte) (jsontree.Node, bool) {
	root, err := jsontree.Parse(raw)
	if err != nil {
		metrics.PayloadRejected(payload)
		n.logger.ErrorContext(ctx, "payload is not valid json",
			"payload", payload,
			"bytes", len(raw),
			"error", err,
		)
		return jsontree.Node{}, false
	}
	return root, true
}

// records parses raw and locates its record list under one of keys. ok is
// false when the body is not json or has no recognised list; an empty list
// is ok.
func (n *Normalizer) records(ctx context.Context, payload string, raw []byte, keys ...string) ([]jsontree.Node, bool) {
	root, ok := n.document(ctx, payload, raw)
	if !ok {
		return nil, false
	}
	items, ok := root.Collection(keys...)
	if !ok {
		metrics.PayloadRejected(payload)
		n.logger.ErrorContext(ctx, "payload has no recognised record list",
			"payload", payload,
			"keys", keys,
		)
		return nil, false
	}
	return items, true
}

// object returns the root, or the first of wrapperKeys holding an object.
func (n *Normalizer) object(ctx context.Context, payload string, raw []byte, wrapperKeys ...string) (jsontree.Node, bool) {
	root, ok := n.document(ctx, payload, raw)
	if !ok {
		return jsontree.Node{}, false
	}
	for _, key := range wrapperKeys {
		if child := root.Get(key); child.IsObject() {
			return child, true
		}
	}
	if !root.IsObject() {
		metrics.PayloadRejected(payload)
		n.logger.ErrorContext(ctx, "payload is not an object", "payload", payload)
		return jsontree.Node{}, false
	}
	return root, true
}

func (n *Normalizer) check(v any) error {
	return n.validate.Struct(v)
}

func (n *Normalizer) skip(ctx context.Context, payload string, index int, reason string, err error) {
	metrics.RecordSkipped(payload)
	args := []any{"payload", payload, "index", index, "reason", reason}
	if err != nil {
		args = append(args, "error", err)
	}
	n.logger.WarnContext(ctx, "skipping malformed record", args...)
}

// characterRef reads character identity from node's nested character object,
// or from node itself. flatIDKeys name the id field when node is flat, since
// a bare "id" may identify the record rather than the character.
func characterRef(node jsontree.Node, defaults Defaults, flatIDKeys ...string) raider.Ref {
	src := node
	idKeys := flatIDKeys
	nested := node.Get("character")
	if nested.IsObject() {
		src = nested
		idKeys = []string{"id", "character_id"}
	}
	ref := raider.Ref{
		ExternalID: src.IntAny(jsontree.Keys(idKeys...)...),
		Name:       textAny(src, "name", "character_name"),
		Realm:      textAny(src, "realm", "character_realm"),
		Region:     textAny(src, "region"),
	}
	if nested.IsObject() {
		if ref.ExternalID == nil {
			ref.ExternalID = node.IntAny(jsontree.Keys("character_id")...)
		}
		if ref.Name == "" {
			ref.Name = textAny(node, "character_name")
		}
		if ref.Realm == "" {
			ref.Realm = textAny(node, "character_realm", "realm")
		}
	} else if name := nested.AsString(); name != nil && ref.Name == "" {
		ref.Name = *name
	}
	return applyRefDefaults(ref, defaults)
}

func applyRefDefaults(ref raider.Ref, defaults Defaults) raider.Ref {
	if ref.Realm == "" {
		ref.Realm = strings.TrimSpace(defaults.Realm)
	}
	if ref.Region == "" {
		ref.Region = strings.TrimSpace(defaults.Region)
	}
	return ref
}

func textAny(node jsontree.Node, names ...string) string {
	if v := node.StringAny(jsontree.Keys(names...)...); v != nil {
		return *v
	}
	return ""
}

// label reads a field that is either a scalar or an object carrying a name.
func label(node jsontree.Node, name string) string {
	child := node.Get(name)
	if child.IsObject() {
		return textAny(child, "name", "type", "value")
	}
	if v := child.AsString(); v != nil {
		return *v
	}
	return ""
}

// idList reads ids from an array of numbers/strings or a delimited string.
func idList(node jsontree.Node) []int64 {
	if node.IsArray() {
		out := make([]int64, 0, len(node.Items()))
		for _, item := range node.Items() {
			if v := item.AsInt(); v != nil {
				out = append(out, *v)
			}
		}
		return out
	}
	text := node.AsString()
	if text == nil || *text == "" {
		return nil
	}
	fields := strings.FieldsFunc(*text, func(r rune) bool {
		return r == ',' || r == ':' || r == ' ' || r == ';'
	})
	out := make([]int64, 0, len(fields))
	for _, field := range fields {
		if v, err := strconv.ParseInt(field, 10, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// unionIDs merges id lists keeping first-seen order and dropping duplicates.
func unionIDs(lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	out := make([]int64, 0)
	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

type namedNode struct {
	Name string
	Node jsontree.Node
}

// namedEntries accepts either an array of objects naming themselves through
// nameKeys, or an object keyed by name. Object keys are returned sorted.
func namedEntries(node jsontree.Node, nameKeys ...string) []namedNode {
	if node.IsArray() {
		out := make([]namedNode, 0, len(node.Items()))
		for _, item := range node.Items() {
			if !item.IsObject() {
				continue
			}
			name := textAny(item, nameKeys...)
			if name == "" {
				continue
			}
			out = append(out, namedNode{Name: name, Node: item})
		}
		return out
	}

	entries := node.Entries()
	if len(entries) == 0 {
		return nil
	}
	names := make([]string, 0, len(entries))
	for key := range entries {
		names = append(names, key)
	}
	sort.Strings(names)
	out := make([]namedNode, 0, len(names))
	for _, name := range names {
		if entries[name].IsNull() {
			continue
		}
		out = append(out, namedNode{Name: name, Node: entries[name]})
	}
	return out
}

// scalarOrField reads an int from a scalar node or from fields of an object node.
func scalarOrField(node jsontree.Node, names ...string) *int64 {
	if v := node.AsInt(); v != nil {
		return v
	}
	return node.IntAny(jsontree.Keys(names...)...)
}

func firstTime(values ...*time.Time) *time.Time {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
