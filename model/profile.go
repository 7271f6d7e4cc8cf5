package model

import "time"

// Profile is the public face of a user. Every user owns exactly one profile;
// the profile is the anchor of the social graph, so deleting a profile also
// deletes the owning user (not the other way around).
type Profile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	UID       string    `gorm:"uniqueIndex;size:36;not null" json:"uid"` // public opaque id
	Handle    string    `gorm:"uniqueIndex;size:150;not null" json:"handle"`
	Bio       string    `gorm:"size:100" json:"bio"`
	Website   string    `gorm:"size:256" json:"website"`
	Private   bool      `gorm:"default:false" json:"private"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
