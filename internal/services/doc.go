// Package services holds the error taxonomy and request-context plumbing
// shared by slate's external collaborators (disk loaders and the
// production-tracking client).
//
// Loader and client failures are tagged with one of the exported sentinel
// errors so that callers can classify them without string matching. The
// cache layer never stores a tagged failure; a failed population leaves the
// key empty and the error propagates to every waiter of that round.
package services
