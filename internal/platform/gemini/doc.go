// Package gemini implements the generation.Generator interface using
// Google's Gemini API via the genai client library.
package gemini
