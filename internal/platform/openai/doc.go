// Package openai implements the generation.Generator interface against
// the OpenAI chat-completions API.
package openai
