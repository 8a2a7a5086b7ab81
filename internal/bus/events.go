// Package bus carries webhook events from the HTTP receiver to the processor
// and decided comments back out to the forge.
package bus

import "time"

// EventKind tags the inbound event variant.
type EventKind int

const (
	EventLabelApplied EventKind = iota
	EventCommentCreated
)

// Repository identifies the repository an event originated from.
type Repository struct {
	ID       int64
	Owner    string
	Name     string
	FullName string
}

// Issue identifies the issue thread an event belongs to. Creator is the
// issue author, who acts as mentor for any task on the issue.
type Issue struct {
	ID      int64
	Number  int
	Title   string
	Creator string
	Link    string
}

// Event is one inbound webhook delivery, already filtered to the two shapes
// the bot reacts to: a label attached to an issue, or a comment created.
type Event struct {
	Kind       EventKind
	DeliveryID string
	Repo       Repository
	Issue      Issue
	ReceivedAt time.Time

	// Label events
	Label       string
	IssueLabels []string

	// Comment events
	CommentAuthor string
	CommentBody   string
}

// OutboundComment is the single user-visible reply for one handled event.
type OutboundComment struct {
	Owner       string
	Repo        string
	IssueNumber int
	Body        string
}
