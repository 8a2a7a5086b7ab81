package rules

import (
	"strconv"
	"strings"

	"github.com/stellarlinkco/mentorbot/internal/program"
	"github.com/stellarlinkco/mentorbot/internal/task"
)

// Kind identifies one recognized slash command.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequestAssign
	KindRequestFinish
	KindApproveAssign
	KindDenyAssign
	KindConfirmFinish
	KindRejectFinish
	KindAdjustScore
)

const (
	studentPrefix = "/request"
	mentorPrefix  = "/intern"
)

// Command is one parsed slash command. Score is set for KindAdjustScore.
type Command struct {
	Kind  Kind
	Score int
}

// Parse recognizes slash commands in a comment body. ok is false when the
// body is not a slash command at all; those comments are ignored without a
// response. A slash command that matches no known form parses to KindUnknown
// and draws the generic rejection.
func Parse(body string) (Command, bool) {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "/") {
		return Command{}, false
	}

	fields := strings.Fields(body)
	switch fields[0] {
	case studentPrefix:
		if len(fields) >= 2 {
			switch fields[1] {
			case "assign":
				return Command{Kind: KindRequestAssign}, true
			case "finish":
				return Command{Kind: KindRequestFinish}, true
			}
		}
	case mentorPrefix:
		if len(fields) >= 2 {
			switch fields[1] {
			case "approve":
				return Command{Kind: KindApproveAssign}, true
			case "deny":
				return Command{Kind: KindDenyAssign}, true
			case "done":
				return Command{Kind: KindConfirmFinish}, true
			case "reject":
				return Command{Kind: KindRejectFinish}, true
			case "score":
				if len(fields) >= 3 {
					if n, err := strconv.Atoi(fields[2]); err == nil {
						return Command{Kind: KindAdjustScore, Score: n}, true
					}
				}
				return Command{Kind: KindUnknown}, true
			}
		}
	}
	return Command{Kind: KindUnknown}, true
}

// actorRule is the role constraint a command carries.
type actorRule int

const (
	actorAnyone  actorRule = iota // any commenter (student candidates)
	actorStudent                  // must match the task's student login
	actorMentor                   // must match the task's mentor login
)

// commandRule is one row of the closed transition table: who may run the
// command, from which status, to which status, and the success message.
type commandRule struct {
	actor actorRule
	from  task.Status
	to    task.Status
	ok    program.MessageKey
}

var commandTable = map[Kind]commandRule{
	KindRequestAssign: {actorAnyone, task.StatusOpen, task.StatusRequestAssign, program.MsgAssignRequested},
	KindRequestFinish: {actorStudent, task.StatusAssigned, task.StatusRequestFinish, program.MsgFinishRequested},
	KindApproveAssign: {actorMentor, task.StatusRequestAssign, task.StatusAssigned, program.MsgAssignApproved},
	KindDenyAssign:    {actorMentor, task.StatusRequestAssign, task.StatusOpen, program.MsgAssignDenied},
	KindConfirmFinish: {actorMentor, task.StatusRequestFinish, task.StatusFinished, program.MsgFinishConfirmed},
	KindRejectFinish:  {actorMentor, task.StatusRequestFinish, task.StatusAssigned, program.MsgFinishRejected},
}

// Evaluate applies a parsed command from actor against the task record.
// maintainer is the registry record for the task's mentor and is only
// consulted for score adjustment; it may be nil otherwise.
func Evaluate(cmd Command, actor string, t *task.Task, maintainer *program.Maintainer) Decision {
	if cmd.Kind == KindUnknown {
		return reject(program.MsgCommandUnknown)
	}

	if cmd.Kind == KindAdjustScore {
		return evaluateAdjustScore(cmd.Score, actor, t, maintainer)
	}

	rule, ok := commandTable[cmd.Kind]
	if !ok {
		return reject(program.MsgCommandUnknown)
	}

	switch rule.actor {
	case actorStudent:
		if actor != t.Student {
			return reject(program.MsgNotStudent)
		}
	case actorMentor:
		if actor != t.Mentor {
			return reject(program.MsgNotMentor)
		}
	}

	if t.Status != rule.from {
		return rejectArg(program.MsgStatusNotAllowed, string(t.Status))
	}

	student, candidate := "", ""
	switch cmd.Kind {
	case KindRequestAssign:
		// Record the requester as candidate; commitment to the student
		// slot happens on mentor approval.
		candidate = actor
	case KindApproveAssign:
		student = t.Candidate
	case KindDenyAssign:
		// Both slots cleared, task reopens.
	case KindConfirmFinish, KindRejectFinish, KindRequestFinish:
		student = t.Student
	}

	return Decision{
		Reply:  rule.ok,
		Action: Action{Kind: ActionSetStatus, Status: rule.to, Student: student, Candidate: candidate},
	}
}

// evaluateAdjustScore handles the one mentor command that is legal at any
// non-terminal status. The new score is revalidated against the mentor's
// bound exactly as at labeling time.
func evaluateAdjustScore(score int, actor string, t *task.Task, maintainer *program.Maintainer) Decision {
	if actor != t.Mentor {
		return reject(program.MsgNotMentor)
	}
	if t.Status.Terminal() {
		return reject(program.MsgNotAllowed)
	}
	if maintainer == nil {
		return reject(program.MsgNoneMaintainer)
	}
	if score < MinScore || score > maintainer.MaxScore {
		return reject(program.MsgScoreInvalid)
	}
	return Decision{
		Reply:  program.MsgScoreAdjusted,
		Arg:    strconv.Itoa(score),
		Action: Action{Kind: ActionUpdateScore, Score: score},
	}
}
