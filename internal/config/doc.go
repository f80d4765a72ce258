// Package config loads and validates per-project pipeline configuration.
//
// A project config declares the path templates, token rules, task lists and
// collaborator settings for one job. It is loaded once, normalized and
// validated up front, and treated as immutable afterwards: the template
// engine and path model hold read-only references and never reload it.
//
// Resolution order for the config file: an explicit path (CLI flag), the
// SLATE_CONFIG environment variable, the per-job file at
// <job>/.slate/project.toml, then built-in defaults.
package config
