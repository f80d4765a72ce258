// Package tracker wraps the production-tracking service's HTTP API. The
// path model consumes it through the paths it returns; the tracker's own
// data model stays behind this package.
package tracker
