// Package strix is a toolkit for building conversational AI agents on top of
// interchangeable model providers.
//
// The building blocks:
//
//   - Agents: named participants with a model, instructions, and tools
//   - Workflows: sequences of steps that coordinate agent conversations
//   - Tools: plain Go functions exposed to the model via reflected schemas
//   - Events: hooks observing every prompt, chunk, tool call, and result
//   - Memory: conversation threads with fork/join and usage accounting
//
// A typical workflow creates agents, composes them into steps, and runs them
// against a local execution context:
//
//	weatherAgent := agent.New(
//	    agent.Name("weather"),
//	    agent.Model(openai.GPT4oMini),
//	    agent.Instructions("You answer weather questions."),
//	    agent.Tools(forecastTool),
//	)
//
//	wf := strix.New(
//	    strix.Agents(weatherAgent),
//	    strix.Steps(strix.Step(weatherAgent.Name(), "Will it rain tomorrow in Utrecht?")),
//	)
//
//	if err := wf.Run(ctx, strix.Local(hook)); err != nil {
//	    // handle error
//	}
//
// Providers live under provider/ (openai, azure, anthropic, mock, logged) and
// share one streaming contract. Utilities for production demos live in cache,
// circuitbreaker, batch, guardrails, costtracker, and vectorstore.
package strix
