package generation

import (
	"context"
	"strings"
)

// StreamChunk is a single fragment of a streamed provider response.
// A stream is a finite, non-restartable sequence of chunks: the channel
// is closed after the final chunk, and a chunk carrying a non-nil Err
// terminates the stream with no further sends.
type StreamChunk struct {
	// Text is the generated fragment. Empty on the terminal error chunk.
	Text string

	// Err, when non-nil, reports that the stream failed. The partial
	// text received before the error must be discarded by callers that
	// require an atomic result.
	Err error
}

// Generator defines the capability set every provider implements.
// This interface is the boundary between the batch pipeline and external
// AI/LLM services; new providers are added by implementing it, never by
// branching inside the orchestrator.
type Generator interface {
	// Generate sends a single prompt and blocks until the complete
	// generated text is available or an error from the package taxonomy
	// occurs.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream sends a single prompt and returns a channel of
	// text chunks as the provider produces them. The channel is closed
	// when the stream completes or fails. Cancellation is expressed by
	// cancelling ctx; the producer stops sending once it observes it.
	GenerateStream(ctx context.Context, prompt string) (<-chan StreamChunk, error)
}

// Collect drains a stream into the complete generated text. It fails
// atomically: if any chunk carries an error, the partial text is dropped
// and only the error is returned. Context cancellation between chunks
// abandons the stream the same way.
func Collect(ctx context.Context, stream <-chan StreamChunk) (string, error) {
	var sb strings.Builder
	for {
		select {
		case chunk, ok := <-stream:
			if !ok {
				return sb.String(), nil
			}
			if chunk.Err != nil {
				return "", chunk.Err
			}
			sb.WriteString(chunk.Text)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
