// Package review holds generated-but-uncommitted results between the
// end of a run and the user's explicit decision. Edits touch only the
// in-memory outcomes; the host's records change exclusively through
// Commit, one record at a time, with per-record write failures isolated
// so one bad write never blocks the rest.
package review
