// Package batch drives one generation run to completion: it walks the
// job's working set in order, resolves each record's prompt, invokes the
// provider under the retry/timeout policy, and aggregates per-record
// outcomes while reporting progress and honoring cancellation. Workers
// may run concurrently, but outcomes and progress callbacks are always
// delivered in input order, and no record field is ever written here.
package batch
