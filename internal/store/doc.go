// Package store defines the host-collaborator interface the pipeline
// consumes: enumerating selected records, reading their field mappings,
// and writing a single named field at commit time. The pipeline owns no
// durable state of its own; implementations of RecordStore stand in for
// the host application's data store.
package store
