package rules

import (
	"testing"

	"github.com/stellarlinkco/mentorbot/internal/program"
	"github.com/stellarlinkco/mentorbot/internal/task"
)

var testLabels = Labels{Prefix: "task-", Complete: "task-complete"}

func testRegistry() *program.Registry {
	return &program.Registry{
		Repos: []program.Repo{
			{
				Name: "acme/widgets",
				Maintainers: []program.Maintainer{
					{ID: "alice", MaxScore: 5, TaskCap: 2},
					{ID: "bob", MaxScore: 10, TaskCap: 1},
				},
			},
		},
	}
}

func labelInput(label, creator string, issueLabels ...string) LabelInput {
	if issueLabels == nil {
		issueLabels = []string{label}
	}
	return LabelInput{
		Label:        label,
		IssueLabels:  issueLabels,
		RepoFullName: "acme/widgets",
		IssueCreator: creator,
		Labels:       testLabels,
	}
}

func TestCheckLabel_Rejections(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name string
		in   LabelInput
		want program.MessageKey
	}{
		{
			name: "multiple score labels",
			in:   labelInput("task-3", "alice", "task-3", "task-4"),
			want: program.MsgMultiScoreLabel,
		},
		{
			name: "unknown repository",
			in: LabelInput{
				Label: "task-3", IssueLabels: []string{"task-3"},
				RepoFullName: "other/repo", IssueCreator: "alice", Labels: testLabels,
			},
			want: program.MsgNoneProject,
		},
		{
			name: "creator not a maintainer",
			in:   labelInput("task-3", "mallory"),
			want: program.MsgNoneMaintainer,
		},
		{
			name: "no numeric suffix",
			in:   labelInput("task-abc", "alice"),
			want: program.MsgScoreUndefined,
		},
		{
			name: "score above maintainer bound",
			in:   labelInput("task-6", "alice"),
			want: program.MsgScoreInvalid,
		},
		{
			name: "score below minimum",
			in:   labelInput("task-1", "alice"),
			want: program.MsgScoreInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, rejection := CheckLabel(tt.in, reg)
			if rejection == nil {
				t.Fatal("expected rejection, got pass")
			}
			if rejection.Reply != tt.want {
				t.Errorf("reply = %q, want %q", rejection.Reply, tt.want)
			}
			if rejection.Allowed() {
				t.Error("rejection must not carry an action")
			}
		})
	}
}

func TestCheckLabel_DuplicateLabelBeatsTaskStatus(t *testing.T) {
	// Two score labels reject before any task state is consulted, even for
	// a finished task: CheckLabel needs no task record at all.
	_, _, rejection := CheckLabel(labelInput("task-3", "alice", "task-3", "task-4"), testRegistry())
	if rejection == nil || rejection.Reply != program.MsgMultiScoreLabel {
		t.Fatalf("got %+v, want multiScoreLabel", rejection)
	}
}

func TestCheckLabel_CompleteMarkerNotCountedAsScore(t *testing.T) {
	in := labelInput("task-3", "alice", "task-3", "task-complete")
	score, m, rejection := CheckLabel(in, testRegistry())
	if rejection != nil {
		t.Fatalf("unexpected rejection %q", rejection.Reply)
	}
	if score != 3 || m.ID != "alice" {
		t.Errorf("score = %d, maintainer = %q", score, m.ID)
	}
}

func TestCheckLabel_Pass(t *testing.T) {
	score, m, rejection := CheckLabel(labelInput("task-3", "alice"), testRegistry())
	if rejection != nil {
		t.Fatalf("unexpected rejection %q", rejection.Reply)
	}
	if score != 3 {
		t.Errorf("score = %d, want 3", score)
	}
	if m.ID != "alice" || m.MaxScore != 5 || m.TaskCap != 2 {
		t.Errorf("wrong maintainer: %+v", m)
	}
}

func TestDecideLabel_CreatesTask(t *testing.T) {
	m := &program.Maintainer{ID: "alice", MaxScore: 5, TaskCap: 2}

	d := DecideLabel(3, m, nil, 0)
	if d.Reply != program.MsgSuccess {
		t.Errorf("reply = %q, want success", d.Reply)
	}
	if d.Action.Kind != ActionCreate || d.Action.Score != 3 {
		t.Errorf("action = %+v, want create score 3", d.Action)
	}
}

func TestDecideLabel_MentorAtCap(t *testing.T) {
	m := &program.Maintainer{ID: "alice", MaxScore: 5, TaskCap: 2}

	d := DecideLabel(3, m, nil, 2)
	if d.Reply != program.MsgTooManyTasks {
		t.Errorf("reply = %q, want userToomanyTask", d.Reply)
	}
	if d.Allowed() {
		t.Error("no task must be created at cap")
	}
}

func TestDecideLabel_UpdatesNonTerminalTask(t *testing.T) {
	m := &program.Maintainer{ID: "alice", MaxScore: 5, TaskCap: 2}
	statuses := []task.Status{
		task.StatusOpen, task.StatusRequestAssign,
		task.StatusAssigned, task.StatusRequestFinish,
	}

	for _, st := range statuses {
		existing := &task.Task{IssueID: 7, Status: st, Points: 3}
		d := DecideLabel(4, m, existing, 0)
		if d.Reply != program.MsgSuccessUpdate {
			t.Errorf("status %s: reply = %q, want successUpdate", st, d.Reply)
		}
		if d.Arg != "4" {
			t.Errorf("status %s: arg = %q, want 4", st, d.Arg)
		}
		if d.Action.Kind != ActionUpdateScore || d.Action.Score != 4 {
			t.Errorf("status %s: action = %+v", st, d.Action)
		}
	}
}

func TestDecideLabel_TerminalTaskRejectsModification(t *testing.T) {
	m := &program.Maintainer{ID: "alice", MaxScore: 5, TaskCap: 2}

	for _, st := range []task.Status{task.StatusFinished, task.StatusInvalid} {
		existing := &task.Task{IssueID: 7, Status: st}
		d := DecideLabel(3, m, existing, 0)
		if d.Reply != program.MsgNotAllowed {
			t.Errorf("status %s: reply = %q, want notAllowedModify", st, d.Reply)
		}
		if d.Allowed() {
			t.Errorf("status %s: terminal task must not be mutated", st)
		}
	}
}

func TestLabels_Score(t *testing.T) {
	tests := []struct {
		label string
		want  int
		ok    bool
	}{
		{"task-3", 3, true},
		{"task-10", 10, true},
		{"task-", 0, false},
		{"task-x", 0, false},
		{"task-3x", 0, false},
	}
	for _, tt := range tests {
		got, ok := testLabels.Score(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Score(%q) = (%d, %v), want (%d, %v)", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLabels_IsScore(t *testing.T) {
	if !testLabels.IsScore("task-3") {
		t.Error("task-3 should be a score label")
	}
	if testLabels.IsScore("task-complete") {
		t.Error("the complete marker is not a score label")
	}
	if testLabels.IsScore("bug") {
		t.Error("unrelated labels are not score labels")
	}
}
