// Package template implements the path-template language used by the
// pipeline: render (token values to path) and parse (path to token values).
//
// A pattern is literal text with {token} placeholders and [optional] groups.
// An optional group is included in a rendered path only when every token
// inside it was explicitly supplied, and is tried present-first when
// parsing. Token values are constrained by per-project rules (substring
// filter, fixed length, digit-only, default).
//
// Patterns may reference other templates by name ({work_dir} inside the
// work pattern); references are inlined when the engine compiles, so a
// parse against the outer template also recovers the inner template's
// tokens. Compilation happens once at config load; render and parse reuse
// the compiled form.
package template
