// Package rules is the decision core of the bot: the task lifecycle state
// machine and the validation pipeline for label events and slash commands.
// Everything here is pure: inputs are the event, a program config snapshot
// and the already-fetched task record; the output is a single Decision. All
// I/O (config fetch, task lookup, persistence, commenting) belongs to the
// gateway processor.
package rules

import (
	"github.com/stellarlinkco/mentorbot/internal/program"
	"github.com/stellarlinkco/mentorbot/internal/task"
)

// ActionKind tags the state transition a decision requests.
type ActionKind int

const (
	// ActionNone means no durable state changes (rejections).
	ActionNone ActionKind = iota
	// ActionCreate opens a new task with Decision.Action.Score points.
	ActionCreate
	// ActionUpdateScore amends the score of an existing non-terminal task.
	ActionUpdateScore
	// ActionSetStatus moves the task to Action.Status and rewrites both
	// role slots to Action.Student and Action.Candidate.
	ActionSetStatus
)

// Action is the transition the caller must persist via the task service.
// Student and Candidate are full replacement values, not patches: a pending
// assignment request carries the requester in Candidate with Student empty,
// and Student is first filled on mentor approval.
type Action struct {
	Kind      ActionKind
	Score     int
	Status    task.Status
	Student   string
	Candidate string
}

// Decision is the single outcome of one validated event: which catalog
// message to post and which transition, if any, to persist. Arg is appended
// to the rendered message (the new score, or the offending status).
type Decision struct {
	Reply  program.MessageKey
	Arg    string
	Action Action
}

// Allowed reports whether the decision carries a transition to persist.
func (d Decision) Allowed() bool { return d.Action.Kind != ActionNone }

func reject(key program.MessageKey) Decision {
	return Decision{Reply: key}
}

func rejectArg(key program.MessageKey, arg string) Decision {
	return Decision{Reply: key, Arg: arg}
}
