package core

// mapping.go guesses which source header feeds which target field.
//
// Headers are normalized (accents folded, lowercased, non-alphanumerics
// removed) and looked up in an exact index of every declared variation and
// canonical field name. Failing that, they are scored against the same
// corpus by normalized Levenshtein distance, with containment of a
// sufficiently long string counting as a near match. Scores run from 0
// (identical) to 1; anything above the threshold is not a match.

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNoHeaders is returned when a mapping must be inferred from no headers.
var ErrNoHeaders = errors.New("no headers provided")

// Fuzzy matching knobs.
const (
	DefaultMatchThreshold = 0.35
	minMatchLength        = 2
	containmentMinLength  = 4
	containmentScore      = 0.1
)

// Match is the best target field for one header.
type Match struct {
	Field      Field   `json:"field"`
	ExactMatch bool    `json:"exactMatch"`
	Score      float64 `json:"score"`
}

type corpusItem struct {
	variation string
	field     Field
}

// Matcher resolves headers against a variation corpus. It is immutable once
// built and safe for concurrent use.
type Matcher struct {
	exact     map[string]Field
	corpus    []corpusItem
	threshold float64
}

// NewMatcher indexes variations in catalog order. When two fields share a
// spelling the later field owns it in the exact index.
func NewMatcher(variations map[Field][]string, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	m := &Matcher{exact: make(map[string]Field), threshold: threshold}
	for _, f := range Fields {
		names := append(append([]string(nil), variations[f]...), string(f))
		for _, v := range names {
			n := NormalizeHeader(v)
			if n == "" {
				continue
			}
			m.exact[n] = f
			m.corpus = append(m.corpus, corpusItem{variation: n, field: f})
		}
	}
	return m
}

var defaultMatcher = NewMatcher(FieldVariations, DefaultMatchThreshold)

// DefaultMatcher returns the matcher over the built-in catalog.
func DefaultMatcher() *Matcher {
	return defaultMatcher
}

// NormalizeHeader folds accents, lowercases and keeps only [a-z0-9].
func NormalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func similarity(query, candidate string) float64 {
	longest := max(len(query), len(candidate))
	if longest == 0 {
		return 1
	}
	score := float64(levenshtein.ComputeDistance(query, candidate)) / float64(longest)

	short, long := query, candidate
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) >= containmentMinLength && strings.Contains(long, short) {
		score = min(score, containmentScore)
	}
	return score
}

// FindBestMatch returns the target field for header, or false when nothing
// is close enough.
func (m *Matcher) FindBestMatch(header string) (Match, bool) {
	q := NormalizeHeader(header)
	if len(q) < minMatchLength {
		return Match{}, false
	}
	if f, ok := m.exact[q]; ok {
		return Match{Field: f, ExactMatch: true, Score: 0}, true
	}

	best := Match{Score: 2}
	for _, item := range m.corpus {
		if s := similarity(q, item.variation); s < best.Score {
			best = Match{Field: item.field, Score: s}
		}
	}
	if best.Field == "" || best.Score > m.threshold {
		return Match{}, false
	}
	return best, true
}

// InferMapping proposes a mapping for headers.
//
// When two headers claim one field an exact match beats a fuzzy one, the
// first of two exact matches wins, and the lower score wins between fuzzy
// matches.
func (m *Matcher) InferMapping(headers []string) Mapping {
	type claim struct {
		header string
		match  Match
	}
	claims := make(map[Field]claim)
	var order []Field

	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		match, ok := m.FindBestMatch(h)
		if !ok {
			continue
		}
		prev, taken := claims[match.Field]
		if !taken {
			claims[match.Field] = claim{header: h, match: match}
			order = append(order, match.Field)
			continue
		}
		switch {
		case match.ExactMatch && !prev.match.ExactMatch:
			claims[match.Field] = claim{header: h, match: match}
		case !match.ExactMatch && !prev.match.ExactMatch && match.Score < prev.match.Score:
			claims[match.Field] = claim{header: h, match: match}
		}
	}

	out := make(Mapping, len(claims))
	for _, f := range order {
		out[claims[f].header] = f
	}
	return out
}

// FindBestMatch resolves header against the built-in catalog.
func FindBestMatch(header string) (Match, bool) {
	return defaultMatcher.FindBestMatch(header)
}

// InferMapping proposes a mapping against the built-in catalog.
func InferMapping(headers []string) Mapping {
	return defaultMatcher.InferMapping(headers)
}

// SetMapping returns a new mapping with header pointed at field. Any other
// header holding field gives it up. An empty field unmaps the header.
func SetMapping(m Mapping, header string, field Field) (Mapping, error) {
	if field != "" && !IsField(field) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	out := m.Clone()
	if out == nil {
		out = make(Mapping)
	}
	if field == "" {
		delete(out, header)
		return out, nil
	}
	for h, f := range out {
		if f == field && h != header {
			delete(out, h)
		}
	}
	out[header] = field
	return out, nil
}

// FieldsAvailable lists, in catalog order, the fields header may be mapped
// to: those no other header claims, including header's own field.
func FieldsAvailable(m Mapping, header string) []Field {
	claimed := make(map[Field]bool, len(m))
	for h, f := range m {
		if h != header {
			claimed[f] = true
		}
	}
	out := make([]Field, 0, len(Fields))
	for _, f := range Fields {
		if !claimed[f] {
			out = append(out, f)
		}
	}
	return out
}

// UnmappedFields lists catalog fields no header claims.
func UnmappedFields(m Mapping) []Field {
	claimed := make(map[Field]bool, len(m))
	for _, f := range m {
		claimed[f] = true
	}
	var out []Field
	for _, f := range Fields {
		if !claimed[f] {
			out = append(out, f)
		}
	}
	return out
}

// HeaderSplit partitions headers by whether they are mapped.
type HeaderSplit struct {
	Mapped      []string          `json:"mapped"`
	Unmapped    []string          `json:"unmapped"`
	AllMappings map[string]*Field `json:"allMappings"`
}

// SplitHeaders partitions headers in their given order. AllMappings holds
// every header, nil for unmapped ones.
func SplitHeaders(m Mapping, headers []string) HeaderSplit {
	split := HeaderSplit{
		Mapped:      []string{},
		Unmapped:    []string{},
		AllMappings: make(map[string]*Field, len(headers)),
	}
	for _, h := range headers {
		f, ok := m[h]
		if !ok {
			split.Unmapped = append(split.Unmapped, h)
			split.AllMappings[h] = nil
			continue
		}
		split.Mapped = append(split.Mapped, h)
		split.AllMappings[h] = &f
	}
	return split
}

// HeaderQuality scores a header row: +2 per non-empty header, +1 per
// distinct one, -3 per blank, and +1 each time a distinct header equals a
// declared variation.
func HeaderQuality(headers []string) int {
	if len(headers) == 0 {
		return 0
	}

	quality := 0
	unique := make(map[string]bool)
	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			quality -= 3
			continue
		}
		quality += 2
		unique[strings.ToLower(h)] = true
	}
	quality += len(unique)

	for _, f := range Fields {
		for _, v := range FieldVariations[f] {
			if unique[v] {
				quality++
			}
		}
	}
	return quality
}

// MapRow projects row onto its mapped target fields only.
func MapRow(row Row, m Mapping) Row {
	out := make(Row, len(m))
	for h, f := range m {
		if v, ok := row[h]; ok {
			out[string(f)] = v
		}
	}
	return out
}

// MapRowHybrid is MapRow plus every unmapped column under its own name.
func MapRowHybrid(row Row, m Mapping) Row {
	out := MapRow(row, m)
	for k, v := range row {
		if _, mapped := m[k]; mapped {
			continue
		}
		if _, clash := out[k]; clash {
			continue
		}
		out[k] = v
	}
	return out
}

// HybridHeaders renames mapped headers to their target fields, keeping order.
func HybridHeaders(headers []string, m Mapping) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if f, ok := m[h]; ok {
			out[i] = string(f)
			continue
		}
		out[i] = h
	}
	return out
}
