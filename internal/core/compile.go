package core

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrMissingRule means a mapped target field has no cleaning rule.
	ErrMissingRule = errors.New("missing cleaning rule")

	// ErrUnknownField means a mapping targets a field outside the catalog.
	ErrUnknownField = errors.New("unknown target field")

	// ErrUnknownHook means a rule or plan references an unregistered hook.
	ErrUnknownHook = errors.New("unknown hook")

	// ErrDuplicateTarget means two source headers claim one target field.
	ErrDuplicateTarget = errors.New("duplicate target field")
)

// Complexity buckets for a compiled plan.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// validator checks a cleaned value and returns a message when it fails.
type validator func(value any) (string, bool)

// PlanEntry is the compiled metadata for one mapped source header.
type PlanEntry struct {
	Header string
	Target Field
	Rule   CleaningRule

	optionSet  map[string]struct{}
	regex      *regexp.Regexp
	validators []validator
}

// PlanOptions configures plan-wide behavior.
type PlanOptions struct {
	RowHooks            []string
	CleanUp             bool
	AllowedEmailDomains []string
}

// DefaultPlanOptions runs the entry hook in clean-up mode with the default domains.
func DefaultPlanOptions() PlanOptions {
	return PlanOptions{
		RowHooks:            []string{HookEntryInit},
		CleanUp:             true,
		AllowedEmailDomains: append([]string(nil), DefaultAllowedEmailDomains...),
	}
}

// Plan is the read-only, compiled form of a mapping. Entries are in catalog order.
type Plan struct {
	Entries  []PlanEntry
	RowHooks []string
	Hooks    HookOptions

	HasUniquenessChecks bool
	HasComplexHooks     bool
	EstimatedComplexity string

	byHeader map[string]int
}

// Entry returns the compiled entry for a source header.
func (p *Plan) Entry(header string) (PlanEntry, bool) {
	i, ok := p.byHeader[header]
	if !ok {
		return PlanEntry{}, false
	}
	return p.Entries[i], true
}

// Targets returns the mapped target fields in catalog order.
func (p *Plan) Targets() []Field {
	out := make([]Field, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Target
	}
	return out
}

// Compile builds a plan with the default plan options.
func Compile(mapping Mapping, rules RuleSet) (*Plan, error) {
	return CompileWith(mapping, rules, DefaultPlanOptions())
}

// MustCompile is like Compile but panics on error.
// Use it only with the built-in catalog where a failure is a programming bug.
func MustCompile(mapping Mapping, rules RuleSet) *Plan {
	p, err := Compile(mapping, rules)
	if err != nil {
		panic(fmt.Sprintf("compile plan: %v", err))
	}
	return p
}

// CompileWith turns a mapping and rule catalog into a compiled plan.
// Every configuration problem is reported, not just the first.
func CompileWith(mapping Mapping, rules RuleSet, opts PlanOptions) (*Plan, error) {
	var result *multierror.Error

	headers := make([]string, 0, len(mapping))
	for h := range mapping {
		headers = append(headers, h)
	}
	sort.Slice(headers, func(i, j int) bool {
		fi, fj := fieldOrder[mapping[headers[i]]], fieldOrder[mapping[headers[j]]]
		if fi != fj {
			return fi < fj
		}
		return headers[i] < headers[j]
	})

	plan := &Plan{
		RowHooks: append([]string(nil), opts.RowHooks...),
		Hooks: HookOptions{
			CleanUp:             opts.CleanUp,
			AllowedEmailDomains: append([]string(nil), opts.AllowedEmailDomains...),
		},
		byHeader: make(map[string]int, len(headers)),
	}

	claimedBy := make(map[Field]string, len(headers))
	for _, header := range headers {
		target := mapping[header]
		if !IsField(target) {
			result = multierror.Append(result, fmt.Errorf("%w: %q for header %q", ErrUnknownField, target, header))
			continue
		}
		if prev, taken := claimedBy[target]; taken {
			result = multierror.Append(result, fmt.Errorf("%w: %q claimed by %q and %q", ErrDuplicateTarget, target, prev, header))
			continue
		}
		claimedBy[target] = header
		rule, ok := rules[target]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("%w: field %q", ErrMissingRule, target))
			continue
		}
		entry, err := compileEntry(header, target, rule)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if rule.Unique != nil {
			plan.HasUniquenessChecks = true
		}
		if rule.ColumnHookID != "" {
			plan.HasComplexHooks = true
		}
		plan.byHeader[header] = len(plan.Entries)
		plan.Entries = append(plan.Entries, entry)
	}

	for _, id := range plan.RowHooks {
		if _, ok := GetRowHook(id); !ok {
			result = multierror.Append(result, fmt.Errorf("%w: row hook %q", ErrUnknownHook, id))
		}
	}
	if len(plan.RowHooks) > 0 {
		plan.HasComplexHooks = true
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("compile plan: %w", err)
	}

	plan.EstimatedComplexity = estimateComplexity(plan)
	return plan, nil
}

func compileEntry(header string, target Field, rule CleaningRule) (PlanEntry, error) {
	entry := PlanEntry{Header: header, Target: target, Rule: rule}

	if rule.ColumnHookID != "" {
		if _, ok := GetColumnHook(rule.ColumnHookID); !ok {
			return PlanEntry{}, fmt.Errorf("%w: column hook %q for field %q", ErrUnknownHook, rule.ColumnHookID, target)
		}
	}

	if len(rule.Options) > 0 {
		entry.optionSet = make(map[string]struct{}, len(rule.Options))
		for _, o := range rule.Options {
			entry.optionSet[toText(NormalizeCase(o, rule.Case))] = struct{}{}
		}
		set, mode := entry.optionSet, rule.Case
		entry.validators = append(entry.validators, func(v any) (string, bool) {
			s := toText(v)
			if s == "" {
				return "", true
			}
			if _, ok := set[toText(NormalizeCase(s, mode))]; ok {
				return "", true
			}
			return "Invalid option: " + s, false
		})
	}

	if rule.Regex != "" {
		re, err := regexp.Compile(rule.Regex)
		if err != nil {
			return PlanEntry{}, fmt.Errorf("invalid regex for field %q: %w", target, err)
		}
		entry.regex = re
		entry.validators = append(entry.validators, func(v any) (string, bool) {
			s := toText(v)
			if s == "" || re.MatchString(s) {
				return "", true
			}
			return "Invalid format", false
		})
	}

	return entry, nil
}

func estimateComplexity(p *Plan) string {
	score := len(p.Entries)
	if p.HasUniquenessChecks {
		score += 4
	}
	if p.HasComplexHooks {
		score += 4
	}
	switch {
	case score >= 16:
		return ComplexityHigh
	case score >= 8:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

// OptionSet returns the entry's allowed values, sorted.
func (e PlanEntry) OptionSet() []string {
	out := make([]string, 0, len(e.optionSet))
	for o := range e.optionSet {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// String describes the plan for logging.
func (p *Plan) String() string {
	parts := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		parts[i] = fmt.Sprintf("%s->%s", e.Header, e.Target)
	}
	return fmt.Sprintf("Plan{%s, unique=%v, complexity=%s}", strings.Join(parts, ", "), p.HasUniquenessChecks, p.EstimatedComplexity)
}
