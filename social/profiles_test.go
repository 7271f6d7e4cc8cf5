package social

import (
	"context"
	"testing"

	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newProfiles(t *testing.T) (*Profiles, *Ledger, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return NewProfiles(db, nil, logger), NewLedger(db, nil, logger), db
}

func TestTogglePrivacy(t *testing.T) {
	s, _, db := newProfiles(t)
	ctx := context.Background()
	a := createProfile(t, db, "alice", false)

	private, err := s.TogglePrivacy(ctx, a)
	require.NoError(t, err)
	assert.True(t, private)

	got, err := s.GetPrivacy(ctx, a)
	require.NoError(t, err)
	assert.True(t, got)

	private, err = s.TogglePrivacy(ctx, a)
	require.NoError(t, err)
	assert.False(t, private)
}

func TestPrivacyFlipPromotesRequests(t *testing.T) {
	s, l, db := newProfiles(t)
	ctx := context.Background()
	p := createProfile(t, db, "priya", true)
	r1 := createProfile(t, db, "req1", false)
	r2 := createProfile(t, db, "req2", false)
	blocked := createProfile(t, db, "baddie", false)

	_, err := l.Follow(ctx, r1, p)
	require.NoError(t, err)
	_, err = l.Follow(ctx, r2, p)
	require.NoError(t, err)
	_, err = l.Block(ctx, p, blocked)
	require.NoError(t, err)

	require.NoError(t, s.SetPrivacy(ctx, p, false))

	resolver := NewResolver(db)
	followers, err := resolver.Followers(ctx, p)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{r1, r2}, followers,
		"pending requests are auto-accepted when the profile goes public")

	_, err = resolver.PendingRequests(ctx, p)
	assert.ErrorIs(t, err, ErrPublicProfile)

	// The block is untouched by the flip.
	blockedList, err := resolver.BlockedList(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []int64{blocked}, blockedList)
}

func TestSetPrivacySameValueIsNoOp(t *testing.T) {
	s, l, db := newProfiles(t)
	ctx := context.Background()
	p := createProfile(t, db, "priya", true)
	r1 := createProfile(t, db, "req1", false)

	_, err := l.Follow(ctx, r1, p)
	require.NoError(t, err)

	require.NoError(t, s.SetPrivacy(ctx, p, true))

	pending, err := NewResolver(db).PendingRequests(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []int64{r1}, pending, "re-setting private must not promote requests")
}

func TestPublicFlipToPrivateKeepsFollowers(t *testing.T) {
	s, l, db := newProfiles(t)
	ctx := context.Background()
	p := createProfile(t, db, "pat", false)
	f := createProfile(t, db, "fan", false)

	_, err := l.Follow(ctx, f, p)
	require.NoError(t, err)

	require.NoError(t, s.SetPrivacy(ctx, p, true))

	followers, err := NewResolver(db).Followers(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []int64{f}, followers, "going private does not demote existing followers")
}

func TestDeleteProfileCascades(t *testing.T) {
	s, l, db := newProfiles(t)
	ctx := context.Background()
	a := createProfile(t, db, "alice", false)
	b := createProfile(t, db, "bob", false)

	_, err := l.Follow(ctx, a, b)
	require.NoError(t, err)
	_, err = l.Follow(ctx, b, a)
	require.NoError(t, err)

	post := &model.Post{AuthorID: a, Title: "hello", Content: "world"}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Create(&model.Comment{PostID: post.ID, AuthorID: b, Content: "hi"}).Error)
	require.NoError(t, db.Create(&model.Vote{PostID: post.ID, ProfileID: b, Value: 5}).Error)

	var userID int64
	require.NoError(t, db.Model(&model.Profile{}).Where("id = ?", a).Pluck("user_id", &userID).Error)

	require.NoError(t, s.DeleteProfile(ctx, a))

	var n int64
	db.Model(&model.Relation{}).Where("actor_id = ? OR account_id = ?", a, a).Count(&n)
	assert.Zero(t, n, "relations referencing the profile are removed")

	db.Model(&model.Post{}).Where("author_id = ?", a).Count(&n)
	assert.Zero(t, n)
	db.Model(&model.Comment{}).Where("post_id = ?", post.ID).Count(&n)
	assert.Zero(t, n)
	db.Model(&model.Vote{}).Where("post_id = ?", post.ID).Count(&n)
	assert.Zero(t, n)

	// Deleting the profile deletes the owning user, not the reverse.
	db.Model(&model.User{}).Where("id = ?", userID).Count(&n)
	assert.Zero(t, n)

	_, err = s.Get(ctx, a)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestDeleteMissingProfile(t *testing.T) {
	s, _, _ := newProfiles(t)
	err := s.DeleteProfile(context.Background(), 4242)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGetByUID(t *testing.T) {
	s, _, db := newProfiles(t)
	ctx := context.Background()
	a := createProfile(t, db, "alice", false)

	var uid string
	require.NoError(t, db.Model(&model.Profile{}).Where("id = ?", a).Pluck("uid", &uid).Error)

	p, err := s.GetByUID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, a, p.ID)

	_, err = s.GetByUID(ctx, "no-such-uid")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
