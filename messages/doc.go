// Package messages provides the typed message model exchanged between users,
// assistants, and tools. Messages are tagged unions: each payload type
// implements ModelMessage, and the Message envelope carries run identifiers,
// sender, timestamp, and provider metadata alongside the payload.
//
// Key concepts:
//   - Message[T]: generic envelope for a concrete payload type
//   - UserMessage / AssistantMessage / ToolCallMessage / ToolResponse:
//     the payload union
//   - ContentOrParts: user content that is either a plain string or a list of
//     typed parts (text, image)
//
// Construct messages through the New() builder so timestamps are always set.
package messages
