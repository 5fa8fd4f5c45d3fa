// Package deepseek implements the generation.Generator interface against
// the DeepSeek chat-completions API, including its line-delimited
// streaming mode.
package deepseek
