package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/quailbyte/sociable/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger owns directed relation records between profiles and their state
// transitions. Every mutation is one transaction keyed by the ordered
// (actor, account) pair; the reverse-relation and request-promotion cascades
// commit together with the transition that triggered them.
type Ledger struct {
	db     *gorm.DB
	events *Publisher
	logger *zap.Logger
}

// NewLedger creates a relation Ledger.
func NewLedger(db *gorm.DB, events *Publisher, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, events: events, logger: logger}
}

// lockProfile loads a profile under a row lock so privacy reads serialize
// with concurrent privacy flips.
func lockProfile(tx *gorm.DB, profileID int64) (*model.Profile, error) {
	var p model.Profile
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, translateDBErr(err)
	}
	return &p, nil
}

// lockRelation loads the relation row for an ordered pair under a row lock.
// A missing row returns (nil, nil): absence means no relationship.
func lockRelation(tx *gorm.DB, actorID, accountID int64) (*model.Relation, error) {
	var rel model.Relation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("actor_id = ? AND account_id = ?", actorID, accountID).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateDBErr(err)
	}
	return &rel, nil
}

// Follow creates a relation from actor to account: REQUESTED when the account
// is private, FOLLOWED otherwise.
func (l *Ledger) Follow(ctx context.Context, actorID, accountID int64) (string, error) {
	if err := guardPair(actorID, accountID); err != nil {
		return "", err
	}

	var msg, evt string
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockProfile(tx, accountID)
		if err != nil {
			return err
		}
		rel, err := lockRelation(tx, actorID, accountID)
		if err != nil {
			return err
		}
		if rel != nil {
			return ErrAlreadyRelated
		}

		state := model.StateFollowed
		evt = EventFollowed
		msg = fmt.Sprintf("%s followed", account.Handle)
		if account.Private {
			state = model.StateRequested
			evt = EventRequested
			msg = fmt.Sprintf("request sent to %s", account.Handle)
		}

		if err := tx.Create(&model.Relation{
			ActorID:   actorID,
			AccountID: accountID,
			State:     state,
		}).Error; err != nil {
			// A concurrent Follow on the same pair lost the race on the
			// unique (actor_id, account_id) index.
			if isUniqueViolation(err) {
				return ErrAlreadyRelated
			}
			return translateDBErr(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	l.events.Relation(ctx, evt, actorID, accountID, accountID)
	return msg, nil
}

// Unfollow removes an accepted FOLLOWED relation from actor to account.
func (l *Ledger) Unfollow(ctx context.Context, actorID, accountID int64) (string, error) {
	if err := guardPair(actorID, accountID); err != nil {
		return "", err
	}

	var msg string
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockProfile(tx, accountID)
		if err != nil {
			return err
		}
		rel, err := lockRelation(tx, actorID, accountID)
		if err != nil {
			return err
		}
		if rel == nil || rel.State != model.StateFollowed {
			return ErrNoSuchRelation
		}
		msg = fmt.Sprintf("%s unfollowed", account.Handle)
		return translateDBErr(tx.Delete(&model.Relation{}, rel.ID).Error)
	})
	if err != nil {
		return "", err
	}

	l.events.Relation(ctx, EventUnfollowed, actorID, accountID, accountID)
	return msg, nil
}

// UndoRequest withdraws a pending follow request from actor to account.
func (l *Ledger) UndoRequest(ctx context.Context, actorID, accountID int64) (string, error) {
	if err := guardPair(actorID, accountID); err != nil {
		return "", err
	}

	var msg string
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockProfile(tx, accountID)
		if err != nil {
			return err
		}
		rel, err := lockRelation(tx, actorID, accountID)
		if err != nil {
			return err
		}
		if rel == nil || rel.State != model.StateRequested {
			return ErrNoSuchRelation
		}
		msg = fmt.Sprintf("follow request to %s is undone", account.Handle)
		return translateDBErr(tx.Delete(&model.Relation{}, rel.ID).Error)
	})
	if err != nil {
		return "", err
	}

	l.events.Relation(ctx, EventRequestUndone, actorID, accountID, accountID)
	return msg, nil
}

// Accept approves an inbound follow request: the account being followed acts
// on the REQUESTED relation actor→account and promotes it to FOLLOWED.
func (l *Ledger) Accept(ctx context.Context, accountID, actorID int64) (string, error) {
	if err := guardPair(actorID, accountID); err != nil {
		return "", err
	}

	var msg string
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := lockProfile(tx, actorID)
		if err != nil {
			return err
		}
		rel, err := lockRelation(tx, actorID, accountID)
		if err != nil {
			return err
		}
		if rel == nil || rel.State != model.StateRequested {
			return ErrNoSuchRelation
		}
		msg = fmt.Sprintf("%s's request accepted", actor.Handle)
		return translateDBErr(tx.Model(&model.Relation{}).
			Where("id = ?", rel.ID).
			Update("state", model.StateFollowed).Error)
	})
	if err != nil {
		return "", err
	}

	l.events.Relation(ctx, EventAccepted, actorID, accountID, actorID)
	return msg, nil
}

// Decline rejects an inbound follow request and removes it.
func (l *Ledger) Decline(ctx context.Context, accountID, actorID int64) (string, error) {
	if err := guardPair(actorID, accountID); err != nil {
		return "", err
	}

	var msg string
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := lockProfile(tx, actorID)
		if err != nil {
			return err
		}
		rel, err := lockRelation(tx, actorID, accountID)
		if err != nil {
			return err
		}
		if rel == nil || rel.State != model.StateRequested {
			return ErrNoSuchRelation
		}
		msg = fmt.Sprintf("%s's request declined", actor.Handle)
		return translateDBErr(tx.Delete(&model.Relation{}, rel.ID).Error)
	})
	if err != nil {
		return "", err
	}

	l.events.Relation(ctx, EventDeclined, actorID, accountID, actorID)
	return msg, nil
}

// Block puts the relation actor→account into BLOCKED, overwriting any prior
// state, and severs the reverse relation in the same transaction.
func (l *Ledger) Block(ctx context.Context, actorID, accountID int64) (string, error) {
	if err := guardPair(actorID, accountID); err != nil {
		return "", err
	}

	var msg string
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockProfile(tx, accountID)
		if err != nil {
			return err
		}
		rel, err := lockRelation(tx, actorID, accountID)
		if err != nil {
			return err
		}

		if rel == nil {
			err = tx.Create(&model.Relation{
				ActorID:   actorID,
				AccountID: accountID,
				State:     model.StateBlocked,
			}).Error
			if isUniqueViolation(err) {
				// Lost a create race; overwrite whatever won.
				err = tx.Model(&model.Relation{}).
					Where("actor_id = ? AND account_id = ?", actorID, accountID).
					Update("state", model.StateBlocked).Error
			}
		} else if rel.State != model.StateBlocked {
			err = tx.Model(&model.Relation{}).
				Where("id = ?", rel.ID).
				Update("state", model.StateBlocked).Error
		}
		if err != nil {
			return translateDBErr(err)
		}

		msg = fmt.Sprintf("%s blocked", account.Handle)
		return severReverse(tx, actorID, accountID)
	})
	if err != nil {
		return "", err
	}

	l.events.Relation(ctx, EventBlocked, actorID, accountID, accountID)
	return msg, nil
}

// Unblock removes a BLOCKED relation from actor to account.
func (l *Ledger) Unblock(ctx context.Context, actorID, accountID int64) (string, error) {
	if err := guardPair(actorID, accountID); err != nil {
		return "", err
	}

	var msg string
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockProfile(tx, accountID)
		if err != nil {
			return err
		}
		rel, err := lockRelation(tx, actorID, accountID)
		if err != nil {
			return err
		}
		if rel == nil || rel.State != model.StateBlocked {
			return ErrNoSuchRelation
		}
		msg = fmt.Sprintf("%s unblocked", account.Handle)
		return translateDBErr(tx.Delete(&model.Relation{}, rel.ID).Error)
	})
	if err != nil {
		return "", err
	}

	l.events.Relation(ctx, EventUnblocked, actorID, accountID, accountID)
	return msg, nil
}
