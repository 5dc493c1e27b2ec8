// Package extraction turns transcript segments into an ordered list of
// actionable tasks.
//
// The package has two extraction paths. The LLM path sends segments to a
// structured-output model behind an escalation state machine
// (Primary -> Upgraded -> UpgradedSimple -> Failed) and then runs the raw
// items through a deterministic postprocessor: duration attachment,
// cancellation resolution, connector splitting, contact-list expansion,
// normalization, validation, deduplication and spoken-order restoration.
// A safety splitter re-splits any multi-sentence "blob" title the model
// produced despite the schema.
//
// The heuristic path is a model-free reimplementation of the same
// splitting and validation rules over raw text. The pipeline invokes it
// when the model path returns nothing, returns a single blob, or skips
// segments that clearly contain actions; its output is merged with
// whatever usable model output exists.
//
// Both paths are pure over their inputs; the only suspension point is
// the HTTP call to the model provider. Nothing is shared or cached
// between extraction requests.
package extraction
