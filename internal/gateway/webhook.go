package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/stellarlinkco/mentorbot/internal/bus"
	"github.com/stellarlinkco/mentorbot/internal/rules"
)

const (
	headerEvent     = "X-Forge-Event"
	headerDelivery  = "X-Forge-Delivery"
	headerSignature = "X-Forge-Signature-256"
)

// Webhook receives forge deliveries, verifies their signature and enqueues
// the two event shapes the bot reacts to. Everything else is acknowledged
// and dropped here so the processor only ever sees candidate events.
type Webhook struct {
	secret   string
	botLogin string
	labels   rules.Labels
	bus      *bus.MessageBus
}

func NewWebhook(secret, botLogin string, labels rules.Labels, b *bus.MessageBus) *Webhook {
	return &Webhook{secret: secret, botLogin: botLogin, labels: labels, bus: b}
}

type webhookUser struct {
	Login string `json:"login"`
}

type webhookLabel struct {
	Name string `json:"name"`
}

type webhookIssue struct {
	ID      int64          `json:"id"`
	Number  int            `json:"number"`
	Title   string         `json:"title"`
	HTMLURL string         `json:"html_url"`
	User    webhookUser    `json:"user"`
	Labels  []webhookLabel `json:"labels"`
}

type webhookRepo struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	FullName string      `json:"full_name"`
	Owner    webhookUser `json:"owner"`
}

type webhookPayload struct {
	Action  string        `json:"action"`
	Label   *webhookLabel `json:"label,omitempty"`
	Issue   webhookIssue  `json:"issue"`
	Repo    webhookRepo   `json:"repository"`
	Comment *struct {
		Body string      `json:"body"`
		User webhookUser `json:"user"`
	} `json:"comment,omitempty"`
}

func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body failed", http.StatusBadRequest)
		return
	}

	if !h.verifySignature(r.Header.Get(headerSignature), body) {
		log.Printf("[webhook] rejected delivery %s: bad signature", r.Header.Get(headerDelivery))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	// Acknowledge before processing; the forge only needs receipt.
	w.WriteHeader(http.StatusOK)

	ev, ok := h.toEvent(r.Header.Get(headerEvent), r.Header.Get(headerDelivery), payload)
	if !ok {
		return
	}
	h.bus.Inbound <- ev
}

// verifySignature checks the HMAC-SHA256 hex digest of the body. An empty
// configured secret disables verification (local testing only).
func (h *Webhook) verifySignature(header string, body []byte) bool {
	if h.secret == "" {
		return true
	}
	const prefix = "sha256="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header[len(prefix):]))
}

func (h *Webhook) toEvent(eventType, deliveryID string, p webhookPayload) (bus.Event, bool) {
	ev := bus.Event{
		DeliveryID: deliveryID,
		ReceivedAt: time.Now(),
		Repo: bus.Repository{
			ID:       p.Repo.ID,
			Owner:    p.Repo.Owner.Login,
			Name:     p.Repo.Name,
			FullName: p.Repo.FullName,
		},
		Issue: bus.Issue{
			ID:      p.Issue.ID,
			Number:  p.Issue.Number,
			Title:   p.Issue.Title,
			Creator: p.Issue.User.Login,
			Link:    p.Issue.HTMLURL,
		},
	}

	switch eventType {
	case "issues":
		if p.Action != "labeled" || p.Label == nil {
			return bus.Event{}, false
		}
		// Only score labels enter the pipeline; the complete marker and
		// unrelated labels are not the bot's business.
		if !h.labels.IsScore(p.Label.Name) {
			return bus.Event{}, false
		}
		ev.Kind = bus.EventLabelApplied
		ev.Label = p.Label.Name
		for _, l := range p.Issue.Labels {
			ev.IssueLabels = append(ev.IssueLabels, l.Name)
		}
		return ev, true

	case "issue_comment":
		if p.Action != "created" || p.Comment == nil {
			return bus.Event{}, false
		}
		// The bot never answers itself.
		if h.botLogin != "" && p.Comment.User.Login == h.botLogin {
			return bus.Event{}, false
		}
		ev.Kind = bus.EventCommentCreated
		ev.CommentAuthor = p.Comment.User.Login
		ev.CommentBody = p.Comment.Body
		return ev, true
	}

	return bus.Event{}, false
}
