// Package task holds the task record model shared with the external task
// service, plus the REST client that talks to it. The service is the single
// source of truth for task state; nothing here is persisted locally.
package task

// Status is the lifecycle position of a task. The normal progression is
// Open -> RequestAssign -> Assigned -> RequestFinish -> Finished. Invalid is
// a side branch for malformed scoring. Finished and Invalid are terminal.
type Status string

const (
	StatusOpen          Status = "Open"
	StatusInvalid       Status = "Invalid"
	StatusRequestAssign Status = "RequestAssign"
	StatusAssigned      Status = "Assigned"
	StatusRequestFinish Status = "RequestFinish"
	StatusFinished      Status = "Finished"
)

// Terminal reports whether no further transitions are accepted.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusInvalid
}

// Rank orders statuses along the lifecycle. Deny/reject transitions step
// back one request, everything else must move forward.
func (s Status) Rank() int {
	switch s {
	case StatusOpen:
		return 0
	case StatusRequestAssign:
		return 1
	case StatusAssigned:
		return 2
	case StatusRequestFinish:
		return 3
	case StatusFinished:
		return 4
	}
	return -1 // Invalid and unknown
}

// Task is the record tracking one mentorship assignment tied to one issue.
// IssueID is globally unique on the forge and is the lookup key.
type Task struct {
	Repo        string `json:"repo"`
	Owner       string `json:"owner"`
	IssueNumber int    `json:"issue_number"`
	RepoID      int64  `json:"repo_id"`
	IssueID     int64  `json:"issue_id"`
	Points      int    `json:"points,omitempty"`
	Status      Status `json:"task_status"`
	Student     string `json:"student_login,omitempty"`
	Candidate   string `json:"candidate_login,omitempty"`
	Mentor      string `json:"mentor_login"`
}

// HasStudent reports whether assignment has been approved.
func (t *Task) HasStudent() bool { return t.Student != "" }

// HasCandidate reports whether an assignment request is pending.
func (t *Task) HasCandidate() bool { return t.Candidate != "" }

// CountOpen returns the number of non-terminal tasks in the list. Used for
// the per-mentor concurrent task cap.
func CountOpen(tasks []Task) int {
	n := 0
	for i := range tasks {
		if !tasks[i].Status.Terminal() {
			n++
		}
	}
	return n
}
