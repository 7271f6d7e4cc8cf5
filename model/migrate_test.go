package model_test

import (
	"testing"

	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// User
	user := &model.User{Username: "test_user", Email: "test@example.com", PasswordHash: "hash", Status: 1}
	require.NoError(t, db.Create(user).Error)
	assert.Greater(t, user.ID, int64(0))

	var found model.User
	require.NoError(t, db.First(&found, user.ID).Error)
	assert.Equal(t, "test_user", found.Username)

	// Profile
	profile := &model.Profile{UserID: user.ID, UID: "uid-001", Handle: "test_user"}
	require.NoError(t, db.Create(profile).Error)
	assert.Greater(t, profile.ID, int64(0))

	// Relation
	rel := &model.Relation{ActorID: profile.ID, AccountID: profile.ID + 1, State: model.StateFollowed}
	require.NoError(t, db.Create(rel).Error)

	// Post
	post := &model.Post{AuthorID: profile.ID, Title: "Hello", Slug: "hello", Content: "first"}
	require.NoError(t, db.Create(post).Error)

	// Comment
	comment := &model.Comment{PostID: post.ID, AuthorID: profile.ID, Content: "hi"}
	require.NoError(t, db.Create(comment).Error)

	// Vote
	vote := &model.Vote{PostID: post.ID, ProfileID: profile.ID, Value: 4}
	require.NoError(t, db.Create(vote).Error)

	// AuditLog
	al := &model.AuditLog{TraceID: "trace-001", Action: "relation.follow"}
	require.NoError(t, db.Create(al).Error)
}

func TestRelationPairUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)

	rel := &model.Relation{ActorID: 1, AccountID: 2, State: model.StateRequested}
	require.NoError(t, db.Create(rel).Error)

	dup := &model.Relation{ActorID: 1, AccountID: 2, State: model.StateFollowed}
	assert.Error(t, db.Create(dup).Error, "one relation row per directed pair")

	// The reverse direction is a distinct pair.
	rev := &model.Relation{ActorID: 2, AccountID: 1, State: model.StateFollowed}
	assert.NoError(t, db.Create(rev).Error)
}

func TestVotePairUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, db.Create(&model.Vote{PostID: 1, ProfileID: 1, Value: 3}).Error)
	assert.Error(t, db.Create(&model.Vote{PostID: 1, ProfileID: 1, Value: 5}).Error,
		"one vote row per (post, profile)")
}
