// Package webhook implements the HTTP intake endpoint: signature
// verification, event-type decoding, and hand-off to the dispatcher.
// Grounded directly on the teacher's server/webhook.go
// (handleGitHubWebhook / verifyWebhookSignature).
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/nickmisasi/ghpilotd/internal/events"
	"github.com/nickmisasi/ghpilotd/internal/log"
)

const (
	// maxBodyBytes bounds the request body the same way the teacher's
	// handleGitHubWebhook applies http.MaxBytesReader.
	maxBodyBytes = 5 << 20 // 5 MiB, GitHub's own webhook payload cap

	eventHeader     = "X-GitHub-Event"
	signatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="
)

// Dispatcher is the narrow interface the webhook handler needs from the
// engine's reactor.
type Dispatcher interface {
	Handle(msg events.GithubEventMessage)
}

// Handler is the HTTP handler for POST /github/webhook and GET /health.
type Handler struct {
	secret     string
	dispatcher Dispatcher
	log        log.Logger
}

// New constructs a Handler. secret is the configured webhook secret
// (GH_PILOT_WEBHOOK_SECRET); with an empty secret every delivery that
// passes the body and header checks (which answer 400) is rejected with
// 401, per spec.md §4.1 step 4.
func New(secret string, dispatcher Dispatcher, logger log.Logger) *Handler {
	return &Handler{secret: secret, dispatcher: dispatcher, log: logger}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("👍"))
}

// ServeWebhook handles POST /github/webhook per spec.md §4.1.
func (h *Handler) ServeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warnf("webhook: could not read request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	eventName := r.Header.Get(eventHeader)
	if eventName == "" {
		http.Error(w, "missing "+eventHeader+" header", http.StatusBadRequest)
		return
	}

	sigHeader := r.Header.Get(signatureHeader)
	digest, ok := parseSignatureHeader(sigHeader)
	if !ok {
		http.Error(w, "invalid "+signatureHeader+" header", http.StatusBadRequest)
		return
	}

	if h.secret == "" {
		h.log.Warnf("webhook: rejecting delivery, no webhook secret configured")
		http.Error(w, "no webhook secret configured", http.StatusUnauthorized)
		return
	}

	if !verifySignature(h.secret, body, digest) {
		http.Error(w, "signature mismatch", http.StatusUnauthorized)
		return
	}

	event, err := decodeEvent(eventName, body)
	if err != nil {
		h.log.Errorf("webhook: could not decode %s payload: %v", eventName, err)
		http.Error(w, "could not decode payload", http.StatusInternalServerError)
		return
	}

	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if deliveryID == "" {
		deliveryID = uuid.New().String()
	}

	msg := events.GithubEventMessage{Name: eventName, Event: event, DeliveryID: deliveryID}
	go h.dispatcher.Handle(msg)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("accepted"))
}

// parseSignatureHeader extracts the hex-encoded digest from a
// "sha256=<64 hex chars>" header value.
func parseSignatureHeader(header string) ([]byte, bool) {
	if len(header) <= len(signaturePrefix) || header[:len(signaturePrefix)] != signaturePrefix {
		return nil, false
	}
	hexDigest := header[len(signaturePrefix):]
	if len(hexDigest) != sha256.Size*2 {
		return nil, false
	}
	digest, err := hex.DecodeString(hexDigest)
	if err != nil {
		return nil, false
	}
	return digest, true
}

// verifySignature recomputes HMAC-SHA256(secret, body) and compares it
// to the supplied digest using a constant-time equality check.
func verifySignature(secret string, body, digest []byte) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)
	return hmac.Equal(expected, digest)
}

// decodeEvent decodes body into the Event variant named by eventName.
// Unknown event names decode to the Unknown variant rather than erroring.
func decodeEvent(eventName string, body []byte) (events.Event, error) {
	ev := events.Event{Kind: events.Kind(eventName)}
	var err error
	switch events.Kind(eventName) {
	case events.KindCommitComment:
		ev.CommitComment, err = decodeInto(body, ev.CommitComment)
	case events.KindIssueComment:
		ev.IssueComment, err = decodeInto(body, ev.IssueComment)
	case events.KindIssues:
		ev.Issues, err = decodeInto(body, ev.Issues)
	case events.KindLabel:
		ev.Label, err = decodeInto(body, ev.Label)
	case events.KindPing:
		ev.Ping, err = decodeInto(body, ev.Ping)
	case events.KindPullRequest:
		ev.PullRequest, err = decodeInto(body, ev.PullRequest)
	case events.KindPullRequestReview:
		ev.PullRequestReview, err = decodeInto(body, ev.PullRequestReview)
	case events.KindPullRequestReviewComment:
		ev.PullRequestReviewComment, err = decodeInto(body, ev.PullRequestReviewComment)
	case events.KindPush:
		ev.Push, err = decodeInto(body, ev.Push)
	case events.KindStatus:
		ev.Status, err = decodeInto(body, ev.Status)
	case events.KindCheckSuite:
		ev.CheckSuite, err = decodeInto(body, ev.CheckSuite)
	default:
		ev.Kind = events.KindUnknown
		ev.UnknownName = eventName
		ev.UnknownBody = append(json.RawMessage(nil), body...)
		return ev, nil
	}
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

func decodeInto[T any](body []byte, _ *T) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
