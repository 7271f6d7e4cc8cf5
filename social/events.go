package social

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quailbyte/sociable/cache"
	"go.uber.org/zap"
)

// Relation event types published after a transition commits.
const (
	EventRequested     = "requested"
	EventFollowed      = "followed"
	EventAccepted      = "accepted"
	EventDeclined      = "declined"
	EventUnfollowed    = "unfollowed"
	EventRequestUndone = "request_undone"
	EventBlocked       = "blocked"
	EventUnblocked     = "unblocked"
	EventPrivacyFlip   = "privacy_changed"
)

// Event describes one committed relation or privacy transition.
type Event struct {
	Type      string    `json:"type"`
	ActorID   int64     `json:"actor_id"`
	AccountID int64     `json:"account_id"`
	At        time.Time `json:"at"`
}

// EventChannel is the pub/sub channel carrying events addressed to a profile.
func EventChannel(profileID int64) string {
	return fmt.Sprintf("social:events:%d", profileID)
}

// Publisher fans committed transitions out to pub/sub for notification
// delivery. It is notification-only: consistency side effects run inside the
// triggering transaction, never here. A nil *Publisher is a no-op.
type Publisher struct {
	ps     cache.PubSub
	logger *zap.Logger
}

// NewPublisher creates an event Publisher.
func NewPublisher(ps cache.PubSub, logger *zap.Logger) *Publisher {
	return &Publisher{ps: ps, logger: logger}
}

// Relation publishes an event to the profile it concerns.
func (p *Publisher) Relation(ctx context.Context, typ string, actorID, accountID, notifyID int64) {
	if p == nil || p.ps == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Type:      typ,
		ActorID:   actorID,
		AccountID: accountID,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := p.ps.Publish(ctx, EventChannel(notifyID), string(payload)); err != nil {
		p.logger.Warn("relation event publish failed",
			zap.String("type", typ),
			zap.Int64("notify_id", notifyID),
			zap.Error(err))
	}
}
