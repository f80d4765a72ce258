// Package preflight verifies the environment before pipeline operations:
// job root accessibility, free disk space, tracker reachability and the
// mirror store location. Checks report results rather than failing fast so
// the CLI can show everything wrong at once.
package preflight
