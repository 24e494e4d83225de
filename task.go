package strix

import (
	"fmt"

	"github.com/strixlabs/strix/messages"
)

type task interface {
	task()
}

type stringTask string

func (s stringTask) task() {}

type messageTask messages.Message[messages.UserMessage]

func (m messageTask) task() {}

// ConversationStep pairs an agent with the task it should perform.
type ConversationStep struct {
	agentName string
	task      task
}

// Task constrains the input accepted by Step: a plain prompt string or a
// prebuilt user message.
type Task interface {
	~string | messages.Message[messages.UserMessage]
}

// Step creates a conversation step for the named agent.
func Step[T Task](agentName string, tsk T) ConversationStep {
	var t task
	switch xt := any(tsk).(type) {
	case string:
		t = stringTask(xt)
	case messages.Message[messages.UserMessage]:
		t = messageTask(xt)
	default:
		panic(fmt.Sprintf("invalid task type: %T", xt))
	}
	return ConversationStep{
		agentName: agentName,
		task:      t,
	}
}
