// Package executor runs agent commands against a provider: it drives the
// reactor loop that streams completions, dispatches tool calls, follows agent
// handoffs, and completes a promise with the final response.
//
// A RunCommand bundles everything a single run needs (agent, thread, hook,
// response schema). Results are delivered through a CompletableFuture so
// callers can block on Get() while events flow through the hook.
package executor
