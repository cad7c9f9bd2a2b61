// Package approval implements the exclusion request state machine. A request
// is validated, routed to an approver and held as pending until exactly one
// decision is applied to it.
//
// All operations on the same cluster id are serialized, so duplicate
// submissions produce a single notification and repeated decisions are
// no-ops.
package approval
