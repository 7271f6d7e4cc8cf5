package social

import (
	"github.com/quailbyte/sociable/model"
	"gorm.io/gorm"
)

// Cascades are consistency fixers that run inside the transaction of the
// transition that triggered them: a reader after commit always observes the
// primary transition and its consequences together, or neither.

// severReverse deletes the reverse relation account→actor unless it is
// itself a block. A blocked party cannot keep a follow or pending request
// pointing at the blocker.
func severReverse(tx *gorm.DB, actorID, accountID int64) error {
	err := tx.Where("actor_id = ? AND account_id = ? AND state <> ?",
		accountID, actorID, model.StateBlocked).
		Delete(&model.Relation{}).Error
	return translateDBErr(err)
}

// promoteRequests turns every pending request aimed at the account into an
// accepted follow. Runs when a private profile goes public: a public profile
// has no request concept, so pending requests are auto-accepted.
func promoteRequests(tx *gorm.DB, accountID int64) (int64, error) {
	res := tx.Model(&model.Relation{}).
		Where("account_id = ? AND state = ?", accountID, model.StateRequested).
		Update("state", model.StateFollowed)
	return res.RowsAffected, translateDBErr(res.Error)
}

// purgeProfile removes everything anchored to a profile: relations in both
// directions, authored posts with their comments and votes, and the
// profile's own comments and votes on other posts.
func purgeProfile(tx *gorm.DB, profileID int64) error {
	if err := tx.Where("actor_id = ? OR account_id = ?", profileID, profileID).
		Delete(&model.Relation{}).Error; err != nil {
		return translateDBErr(err)
	}

	var postIDs []int64
	if err := tx.Model(&model.Post{}).
		Where("author_id = ?", profileID).
		Pluck("id", &postIDs).Error; err != nil {
		return translateDBErr(err)
	}
	if len(postIDs) > 0 {
		if err := tx.Where("post_id IN ?", postIDs).Delete(&model.Comment{}).Error; err != nil {
			return translateDBErr(err)
		}
		if err := tx.Where("post_id IN ?", postIDs).Delete(&model.Vote{}).Error; err != nil {
			return translateDBErr(err)
		}
		if err := tx.Where("author_id = ?", profileID).Delete(&model.Post{}).Error; err != nil {
			return translateDBErr(err)
		}
	}

	if err := tx.Where("author_id = ?", profileID).Delete(&model.Comment{}).Error; err != nil {
		return translateDBErr(err)
	}
	if err := tx.Where("profile_id = ?", profileID).Delete(&model.Vote{}).Error; err != nil {
		return translateDBErr(err)
	}
	return nil
}
