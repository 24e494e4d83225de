// Package provider defines the contract between the toolkit and AI model
// vendors. A Provider turns a completion request into a stream of events;
// concrete implementations (openai, azure, anthropic, mock) translate the
// common request/response shapes to each vendor's wire format, and the logged
// decorator adds structured logging around any of them.
//
// Every completion, streaming or not, is delivered on a channel of
// StreamEvent values: Delim marks stream boundaries, Chunk carries
// incremental deltas, Response carries a complete message with a thread
// checkpoint, and Error carries failures.
package provider
