// Package domain contains the core types for batch prompt generation:
// records with named fields, job specifications describing one generation
// run, and the per-record outcomes a run produces. Types in this package
// carry no dependencies on storage, transport, or provider integrations.
package domain
