package social

import (
	"context"
	"errors"

	"github.com/quailbyte/sociable/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Profiles exposes the profile-store operations the graph depends on:
// privacy reads and flips, and profile deletion. The profile anchors the
// identity, so deleting a profile also deletes the owning user.
type Profiles struct {
	db     *gorm.DB
	events *Publisher
	logger *zap.Logger
}

// NewProfiles creates the profile store service.
func NewProfiles(db *gorm.DB, events *Publisher, logger *zap.Logger) *Profiles {
	return &Profiles{db: db, events: events, logger: logger}
}

// Get loads a profile by ID.
func (s *Profiles) Get(ctx context.Context, profileID int64) (*model.Profile, error) {
	var p model.Profile
	err := s.db.WithContext(ctx).First(&p, profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, translateDBErr(err)
	}
	return &p, nil
}

// GetByUID loads a profile by its public opaque ID.
func (s *Profiles) GetByUID(ctx context.Context, uid string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, translateDBErr(err)
	}
	return &p, nil
}

// GetByUser loads the profile owned by a user.
func (s *Profiles) GetByUser(ctx context.Context, userID int64) (*model.Profile, error) {
	var p model.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, translateDBErr(err)
	}
	return &p, nil
}

// GetPrivacy reports whether the profile is private.
func (s *Profiles) GetPrivacy(ctx context.Context, profileID int64) (bool, error) {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return false, err
	}
	return p.Private, nil
}

// SetPrivacy sets the privacy flag. Flipping private→public promotes every
// pending request into an accepted follow in the same transaction.
func (s *Profiles) SetPrivacy(ctx context.Context, profileID int64, private bool) error {
	var promoted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProfile(tx, profileID)
		if err != nil {
			return err
		}
		if p.Private == private {
			return nil
		}
		if p.Private && !private {
			promoted, err = promoteRequests(tx, profileID)
			if err != nil {
				return err
			}
		}
		return translateDBErr(tx.Model(&model.Profile{}).
			Where("id = ?", profileID).
			Update("private", private).Error)
	})
	if err != nil {
		return err
	}

	if promoted > 0 {
		s.logger.Info("pending requests auto-accepted on privacy flip",
			zap.Int64("profile_id", profileID),
			zap.Int64("promoted", promoted))
	}
	s.events.Relation(ctx, EventPrivacyFlip, profileID, profileID, profileID)
	return nil
}

// TogglePrivacy flips the privacy flag and returns the new value.
func (s *Profiles) TogglePrivacy(ctx context.Context, profileID int64) (bool, error) {
	current, err := s.GetPrivacy(ctx, profileID)
	if err != nil {
		return false, err
	}
	next := !current
	if err := s.SetPrivacy(ctx, profileID, next); err != nil {
		return false, err
	}
	return next, nil
}

// DeleteProfile removes the profile, every relation and piece of content
// referencing it, and finally the owning user record.
func (s *Profiles) DeleteProfile(ctx context.Context, profileID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProfile(tx, profileID)
		if err != nil {
			return err
		}
		if err := purgeProfile(tx, profileID); err != nil {
			return err
		}
		if err := tx.Delete(&model.Profile{}, profileID).Error; err != nil {
			return translateDBErr(err)
		}
		// The profile anchors the identity: removing it takes the user with it.
		return translateDBErr(tx.Delete(&model.User{}, p.UserID).Error)
	})
}
