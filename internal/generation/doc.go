// Package generation provides interfaces and implementations for interacting
// with external AI/LLM services for text generation. It abstracts the details
// of provider API integration (OpenAI, DeepSeek, Gemini), allowing the batch
// pipeline to fill record fields without coupling to a specific vendor, and
// carries the retry/timeout policy that wraps every provider call.
package generation
