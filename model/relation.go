package model

import "time"

// RelationState is the state of a directed relation between two profiles.
type RelationState string

const (
	StateRequested RelationState = "REQUESTED"
	StateFollowed  RelationState = "FOLLOWED"
	StateBlocked   RelationState = "BLOCKED"
)

// Relation is a directed edge actor→account. At most one row exists per
// ordered pair; absence of a row means no relationship at all.
type Relation struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   int64         `gorm:"uniqueIndex:idx_relation_pair;index:idx_relation_actor;not null" json:"actor_id"`
	AccountID int64         `gorm:"uniqueIndex:idx_relation_pair;index:idx_relation_account;not null" json:"account_id"`
	State     RelationState `gorm:"size:16;not null" json:"state"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
}
