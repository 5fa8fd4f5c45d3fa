// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects, the record
// store (internal/store), and the background run machinery (internal/task)
// to fulfill application features.
//
// Services receive dependencies through constructor injection and translate
// lower-level errors into application-level ones for API responses. The
// layer depends on domain entities and store interfaces, never on specific
// infrastructure implementations.
package service
