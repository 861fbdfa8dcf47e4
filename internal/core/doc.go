// Package core provides the personnel import engine.
//
// This package holds all domain logic independent of any transport. The web
// layer and tests drive it through the same types.
//
// # Architecture
//
// Leaf first:
//
//   - Normalization: trimming, case folding, dates, phones, countries and
//     employee IDs ([NormalizeBasic] and friends).
//   - Catalog: the sixteen target fields with their cleaning rules,
//     variations and structural constraints ([DefaultRules], [Schema]).
//   - Mapping: exact and fuzzy header matching ([InferMapping]).
//   - Compiler: mapping plus catalog becomes a read-only [Plan].
//   - Validation core: [Run] cleans and checks rows against a plan.
//   - Hooks: column and row hooks resolved by id from a registry
//     ([RegisterColumnHook], [RegisterRowHook]).
//   - Pipeline: [Pipeline.RunAll] streams rows through all of the above
//     chunk by chunk.
//   - Editor: [Editor] re-validates single rows after edits and keeps an
//     undo/redo [History].
//   - Service: [Service] runs pipelines in the background per session.
//
// # Hook Registry
//
// Hooks are registered at init time and referenced from rules by id:
//
//	core.RegisterColumnHook("upperCity", func(v any, _ core.ColumnHookContext) any {
//	    return strings.ToUpper(fmt.Sprint(v))
//	})
//
// Registering an id twice panics.
//
// # Row Indices
//
// Every error and change carries a global, zero-based row index, whether it
// came from the validation core, a hook or the schema check. User-facing
// messages use one-based row numbers.
//
// # Error Handling
//
// Row-level problems never fail a run; they come back as [ValidationError]
// values. Configuration problems (unknown fields, missing rules, unknown
// hooks) fail compilation. Technical errors are mapped to user messages
// with [MapError].
package core
