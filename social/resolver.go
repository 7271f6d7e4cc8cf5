package social

import (
	"context"
	"errors"

	"github.com/quailbyte/sociable/model"
	"gorm.io/gorm"
)

// Resolver answers derived, read-only queries over the relation ledger.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a visibility Resolver.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Followers returns the profile IDs with an accepted follow aimed at account.
func (r *Resolver) Followers(ctx context.Context, accountID int64) ([]int64, error) {
	return r.pluck(ctx, "actor_id", "account_id = ? AND state = ?", accountID, model.StateFollowed)
}

// Followings returns the profile IDs the account has an accepted follow to.
func (r *Resolver) Followings(ctx context.Context, accountID int64) ([]int64, error) {
	return r.pluck(ctx, "account_id", "actor_id = ? AND state = ?", accountID, model.StateFollowed)
}

// PendingRequests returns the profile IDs with a pending request aimed at
// account. Public profiles have no request concept; asking for one returns
// ErrPublicProfile so callers can tell "none pending" from "not applicable".
func (r *Resolver) PendingRequests(ctx context.Context, accountID int64) ([]int64, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).First(&p, accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, translateDBErr(err)
	}
	if !p.Private {
		return nil, ErrPublicProfile
	}
	return r.pluck(ctx, "actor_id", "account_id = ? AND state = ?", accountID, model.StateRequested)
}

// BlockedList returns the profile IDs the account has blocked.
func (r *Resolver) BlockedList(ctx context.Context, accountID int64) ([]int64, error) {
	return r.pluck(ctx, "account_id", "actor_id = ? AND state = ?", accountID, model.StateBlocked)
}

func (r *Resolver) pluck(ctx context.Context, column, cond string, args ...interface{}) ([]int64, error) {
	ids := make([]int64, 0)
	err := r.db.WithContext(ctx).Model(&model.Relation{}).
		Where(cond, args...).
		Order("created_at").
		Pluck(column, &ids).Error
	return ids, translateDBErr(err)
}
