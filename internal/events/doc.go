// Package events provides types and interfaces for the pipeline's
// observable lifecycle.
//
// The batch orchestrator and retry policy emit structured events
// (request start/end, retry, error kind, final outcome) without knowing
// which sinks consume them. Handlers are registered on an emitter; the
// default handler forwards events to the structured log. Log rotation
// and retention are host concerns, not handled here.
package events
