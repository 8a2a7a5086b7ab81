package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/stellarlinkco/mentorbot/internal/bus"
	"github.com/stellarlinkco/mentorbot/internal/program"
	"github.com/stellarlinkco/mentorbot/internal/rules"
	"github.com/stellarlinkco/mentorbot/internal/task"
)

// Snapshotter supplies the current program config snapshot.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*program.Snapshot, error)
}

// DeliveryLedger suppresses redelivered webhook events. Forget un-records an
// ID so an event abandoned mid-flight can be retried on redelivery.
type DeliveryLedger interface {
	Seen(deliveryID string) (bool, error)
	Forget(deliveryID string) error
}

// Notifier pushes operator notifications for applied transitions.
type Notifier interface {
	Notify(text string) error
}

// Processor turns one inbound event into at most one persisted transition
// and at most one outbound comment. Events are handled strictly one at a
// time; all durable state lives in the external task service.
type Processor struct {
	labels   rules.Labels
	snaps    Snapshotter
	store    task.Store
	ledger   DeliveryLedger
	notifier Notifier
	bus      *bus.MessageBus
}

func NewProcessor(labels rules.Labels, snaps Snapshotter, store task.Store, ledger DeliveryLedger, notifier Notifier, b *bus.MessageBus) *Processor {
	return &Processor{
		labels:   labels,
		snaps:    snaps,
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		bus:      b,
	}
}

// Run consumes the inbound bus until the context is cancelled.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case ev := <-p.bus.Inbound:
			p.Handle(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

// Handle processes one event end to end. Infrastructure failures (config
// fetch, task service reads) abandon the event with a log line and no
// comment; validation rejections and applied transitions each produce
// exactly one comment.
func (p *Processor) Handle(ctx context.Context, ev bus.Event) {
	if p.ledger != nil {
		seen, err := p.ledger.Seen(ev.DeliveryID)
		if err != nil {
			log.Printf("[gateway] dedup check for %s failed: %v", ev.DeliveryID, err)
		} else if seen {
			log.Printf("[gateway] skipping redelivered event %s", ev.DeliveryID)
			return
		}
	}

	snap, err := p.snaps.Snapshot(ctx)
	if err != nil {
		// No catalog means no reliable message text; abort without comment.
		log.Printf("[gateway] program config unavailable, abandoning event %s: %v", ev.DeliveryID, err)
		p.release(ev.DeliveryID)
		return
	}

	switch ev.Kind {
	case bus.EventLabelApplied:
		p.handleLabel(ctx, ev, snap)
	case bus.EventCommentCreated:
		p.handleComment(ctx, ev, snap)
	}
}

func (p *Processor) handleLabel(ctx context.Context, ev bus.Event, snap *program.Snapshot) {
	in := rules.LabelInput{
		Label:        ev.Label,
		IssueLabels:  ev.IssueLabels,
		RepoFullName: ev.Repo.FullName,
		IssueCreator: ev.Issue.Creator,
		Labels:       p.labels,
	}

	score, maintainer, rejection := rules.CheckLabel(in, snap.Registry)
	if rejection != nil {
		p.post(ev, snap, *rejection)
		return
	}

	existing, err := p.getTask(ctx, ev.Issue.ID)
	if err != nil {
		log.Printf("[gateway] task lookup for issue %d failed: %v", ev.Issue.ID, err)
		p.release(ev.DeliveryID)
		return
	}

	openCount := 0
	if existing == nil {
		tasks, err := p.store.SearchByMentor(ctx, ev.Repo.ID, maintainer.ID)
		if err != nil {
			log.Printf("[gateway] mentor task search for %s failed: %v", maintainer.ID, err)
			p.release(ev.DeliveryID)
			return
		}
		openCount = task.CountOpen(tasks)
	}

	decision := rules.DecideLabel(score, maintainer, existing, openCount)
	p.apply(ctx, ev, snap, decision)
}

func (p *Processor) handleComment(ctx context.Context, ev bus.Event, snap *program.Snapshot) {
	cmd, isCommand := rules.Parse(ev.CommentBody)
	if !isCommand {
		return // ordinary comment, not our business
	}

	if cmd.Kind == rules.KindUnknown {
		p.post(ev, snap, rules.Decision{Reply: program.MsgCommandUnknown})
		return
	}

	t, err := p.getTask(ctx, ev.Issue.ID)
	if err != nil {
		log.Printf("[gateway] task lookup for issue %d failed: %v", ev.Issue.ID, err)
		p.release(ev.DeliveryID)
		return
	}
	if t == nil {
		p.post(ev, snap, rules.Decision{Reply: program.MsgTaskNotFound})
		return
	}

	// Maintainer record for the task's mentor; only score adjustment needs
	// the limits, so a vanished registry entry is fine elsewhere.
	maintainer, _ := snap.Registry.Maintainer(ev.Repo.FullName, t.Mentor)

	decision := rules.Evaluate(cmd, ev.CommentAuthor, t, maintainer)
	p.apply(ctx, ev, snap, decision)
}

// getTask maps the service's "no record" onto nil so the rules layer can
// treat absence explicitly; every other failure stays an error.
func (p *Processor) getTask(ctx context.Context, issueID int64) (*task.Task, error) {
	t, err := p.store.Get(ctx, issueID)
	if errors.Is(err, task.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// apply persists the decided transition, then posts the single reply. A
// persistence failure is reported as its own outcome, never as the success
// message and never silently.
func (p *Processor) apply(ctx context.Context, ev bus.Event, snap *program.Snapshot, d rules.Decision) {
	if d.Allowed() {
		if err := p.persist(ctx, ev, d.Action); err != nil {
			log.Printf("[gateway] persisting transition for issue %d failed: %v", ev.Issue.ID, err)
			p.post(ev, snap, rules.Decision{Reply: program.MsgPersistFailed})
			return
		}
		p.notifyTransition(ev, d)
	}
	p.post(ev, snap, d)
}

func (p *Processor) persist(ctx context.Context, ev bus.Event, a rules.Action) error {
	switch a.Kind {
	case rules.ActionCreate:
		_, err := p.store.Create(ctx, task.CreateRequest{
			Repo:        ev.Repo.Name,
			Owner:       ev.Repo.Owner,
			IssueNumber: ev.Issue.Number,
			RepoID:      ev.Repo.ID,
			IssueID:     ev.Issue.ID,
			Score:       a.Score,
			Mentor:      ev.Issue.Creator,
			IssueTitle:  ev.Issue.Title,
			IssueLink:   ev.Issue.Link,
		})
		return err
	case rules.ActionUpdateScore:
		return p.store.UpdateScore(ctx, ev.Issue.ID, ev.Issue.Title, a.Score)
	case rules.ActionSetStatus:
		return p.store.UpdateStatus(ctx, ev.Issue.ID, a.Status, a.Student, a.Candidate)
	}
	return nil
}

// release un-records a delivery abandoned on an infrastructure failure so a
// forge redelivery gets another attempt. Handled events, including rejections
// and persist failures, keep their ledger entry.
func (p *Processor) release(deliveryID string) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.Forget(deliveryID); err != nil {
		log.Printf("[gateway] releasing delivery %s failed: %v", deliveryID, err)
	}
}

func (p *Processor) post(ev bus.Event, snap *program.Snapshot, d rules.Decision) {
	p.bus.Outbound <- bus.OutboundComment{
		Owner:       ev.Repo.Owner,
		Repo:        ev.Repo.Name,
		IssueNumber: ev.Issue.Number,
		Body:        snap.Catalog.Render(d.Reply, d.Arg),
	}
}

func (p *Processor) notifyTransition(ev bus.Event, d rules.Decision) {
	if p.notifier == nil {
		return
	}
	var what string
	switch d.Action.Kind {
	case rules.ActionCreate:
		what = fmt.Sprintf("task opened with %d points", d.Action.Score)
	case rules.ActionUpdateScore:
		what = fmt.Sprintf("score set to %d", d.Action.Score)
	case rules.ActionSetStatus:
		what = fmt.Sprintf("status -> %s", d.Action.Status)
	default:
		return
	}
	text := fmt.Sprintf("%s#%d: %s", ev.Repo.FullName, ev.Issue.Number, what)
	if err := p.notifier.Notify(text); err != nil {
		log.Printf("[gateway] telegram notify failed: %v", err)
	}
}
