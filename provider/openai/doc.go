// Package openai implements the provider contract on top of the official
// OpenAI Go SDK. It covers chat completions (blocking and streaming), tool
// calling, structured output via JSON schema response formats, and
// embeddings.
package openai
