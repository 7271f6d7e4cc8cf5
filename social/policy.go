package social

import (
	"context"
	"errors"

	"github.com/quailbyte/sociable/model"
	"gorm.io/gorm"
)

// guardPair rejects self-relations before any transition logic runs. The
// ledger's transition code stays identity-agnostic; this is the single place
// that knows actor and account must differ.
func guardPair(actorID, accountID int64) error {
	if actorID == accountID {
		return ErrSelfRelation
	}
	return nil
}

// Policy is the stateless predicate layer combining profile privacy with
// ledger queries to authorize content actions.
type Policy struct {
	db *gorm.DB
}

// NewPolicy creates an access Policy.
func NewPolicy(db *gorm.DB) *Policy {
	return &Policy{db: db}
}

// CanView reports whether viewer may see owner's profile and content.
// A block by the owner denies regardless of privacy or any follow; a private
// owner is visible only to itself and accepted followers.
func (p *Policy) CanView(ctx context.Context, viewerID, ownerID int64) (bool, error) {
	if viewerID == ownerID {
		return true, nil
	}

	blocked, err := p.hasRelation(ctx, ownerID, viewerID, model.StateBlocked)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}

	var owner model.Profile
	err = p.db.WithContext(ctx).First(&owner, ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrProfileNotFound
	}
	if err != nil {
		return false, translateDBErr(err)
	}
	if !owner.Private {
		return true, nil
	}

	return p.hasRelation(ctx, viewerID, ownerID, model.StateFollowed)
}

// CanMutate reports whether actor may delete or edit content owned by
// ownerID: the owner itself, or an admin user.
func (p *Policy) CanMutate(ctx context.Context, actorID, ownerID int64) (bool, error) {
	if actorID == ownerID {
		return true, nil
	}
	return p.isAdmin(ctx, actorID)
}

func (p *Policy) hasRelation(ctx context.Context, actorID, accountID int64, state model.RelationState) (bool, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&model.Relation{}).
		Where("actor_id = ? AND account_id = ? AND state = ?", actorID, accountID, state).
		Count(&n).Error
	return n > 0, translateDBErr(err)
}

func (p *Policy) isAdmin(ctx context.Context, profileID int64) (bool, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("profiles.id = ? AND users.is_admin = ?", profileID, true).
		Count(&n).Error
	return n > 0, translateDBErr(err)
}
