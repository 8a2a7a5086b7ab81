package rules

import (
	"strconv"
	"strings"

	"github.com/stellarlinkco/mentorbot/internal/program"
	"github.com/stellarlinkco/mentorbot/internal/task"
)

// Labels describes the score-label namespace. Prefix is the score label
// prefix ("task-" gives labels like "task-3"); Complete is the reserved
// terminal marker label, which never enters the scoring pipeline.
type Labels struct {
	Prefix   string
	Complete string
}

// IsScore reports whether name is a score-encoding label.
func (l Labels) IsScore(name string) bool {
	return strings.HasPrefix(name, l.Prefix) && name != l.Complete
}

// Score parses the numeric suffix of a score label.
func (l Labels) Score(name string) (int, bool) {
	suffix := strings.TrimPrefix(name, l.Prefix)
	if suffix == "" {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MinScore is the lower bound on any task score; the upper bound comes from
// the maintainer record.
const MinScore = 2

// LabelInput is one score-label attachment event, pre-filtered by the
// gateway to score labels only.
type LabelInput struct {
	Label        string   // the label just applied
	IssueLabels  []string // every label currently on the issue
	RepoFullName string
	IssueCreator string
	Labels       Labels
}

// CheckLabel runs the ordered validation pipeline that needs no remote task
// state: duplicate score label, repository registration, maintainer role,
// score parse, score bounds. Each step short-circuits with a rejection. On
// success the parsed score and the acting maintainer are returned and the
// caller proceeds to DecideLabel with the task lookup results.
//
// The duplicate-label check deliberately runs before any task-status check,
// so a second score label on a finished task reports multiScoreLabel, not
// notAllowedModify.
func CheckLabel(in LabelInput, reg *program.Registry) (int, *program.Maintainer, *Decision) {
	multi := 0
	for _, name := range in.IssueLabels {
		if in.Labels.IsScore(name) {
			multi++
		}
	}
	if multi > 1 {
		d := reject(program.MsgMultiScoreLabel)
		return 0, nil, &d
	}

	if _, ok := reg.Repo(in.RepoFullName); !ok {
		d := reject(program.MsgNoneProject)
		return 0, nil, &d
	}

	m, ok := reg.Maintainer(in.RepoFullName, in.IssueCreator)
	if !ok {
		d := reject(program.MsgNoneMaintainer)
		return 0, nil, &d
	}

	score, ok := in.Labels.Score(in.Label)
	if !ok {
		d := reject(program.MsgScoreUndefined)
		return 0, nil, &d
	}

	if score < MinScore || score > m.MaxScore {
		d := reject(program.MsgScoreInvalid)
		return 0, nil, &d
	}

	return score, m, nil
}

// DecideLabel finishes the label pipeline given the existing task record (nil
// when the task service has none) and the mentor's current count of
// non-terminal tasks. Re-applying a score label to a live task is a score
// update, never a duplicate-create error.
func DecideLabel(score int, m *program.Maintainer, existing *task.Task, openCount int) Decision {
	if existing == nil {
		if openCount >= m.TaskCap {
			return reject(program.MsgTooManyTasks)
		}
		return Decision{
			Reply:  program.MsgSuccess,
			Action: Action{Kind: ActionCreate, Score: score},
		}
	}

	if existing.Status.Terminal() {
		return reject(program.MsgNotAllowed)
	}

	return Decision{
		Reply:  program.MsgSuccessUpdate,
		Arg:    strconv.Itoa(score),
		Action: Action{Kind: ActionUpdateScore, Score: score},
	}
}
