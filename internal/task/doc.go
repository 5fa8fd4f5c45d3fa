// Package task manages background job queuing, processing, and lifecycle.
// It provides mechanisms for asynchronous execution of long-running batch
// generation runs, ensuring they don't block HTTP request handling, and an
// in-memory registry exposing run progress to the API layer.
package task
