package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/social"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = errors.New("content: post not found")
	ErrCommentNotFound = errors.New("content: comment not found")
	ErrNotVisible      = errors.New("content: not visible to viewer")
	ErrForbidden       = errors.New("content: operation not allowed")
	ErrInvalidStars    = errors.New("content: star value must be between 1 and 5")
)

// Service owns posts, comments and votes. Every read goes through the access
// policy on the post's author; every destructive write goes through the
// mutation policy.
type Service struct {
	db     *gorm.DB
	policy *social.Policy
	logger *zap.Logger
}

// NewService creates a content Service.
func NewService(db *gorm.DB, policy *social.Policy, logger *zap.Logger) *Service {
	return &Service{db: db, policy: policy, logger: logger}
}

// CreatePost publishes a new post by the author.
func (svc *Service) CreatePost(ctx context.Context, authorID int64, title, body string) (*model.Post, error) {
	post := &model.Post{
		AuthorID: authorID,
		Title:    title,
		Slug:     slugify(title),
		Content:  body,
	}
	if err := svc.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("content: create post: %w", err)
	}
	return post, nil
}

// GetPost returns a post if the viewer may see its author's content.
func (svc *Service) GetPost(ctx context.Context, viewerID, postID int64) (*model.Post, error) {
	var post model.Post
	err := svc.db.WithContext(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	ok, err := svc.policy.CanView(ctx, viewerID, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotVisible
	}
	return &post, nil
}

// ListPosts returns an author's posts, newest first, if visible to the viewer.
func (svc *Service) ListPosts(ctx context.Context, viewerID, authorID int64) ([]model.Post, error) {
	ok, err := svc.policy.CanView(ctx, viewerID, authorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotVisible
	}

	posts := make([]model.Post, 0)
	err = svc.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// DeletePost removes a post with its comments and votes. Only the author or
// an admin may delete.
func (svc *Service) DeletePost(ctx context.Context, actorID, postID int64) error {
	var post model.Post
	err := svc.db.WithContext(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return err
	}

	ok, err := svc.policy.CanMutate(ctx, actorID, post.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&model.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Post{}, postID).Error
	})
}

// AddComment attaches a comment to a post the actor can see.
func (svc *Service) AddComment(ctx context.Context, actorID, postID int64, body string) (*model.Comment, error) {
	if _, err := svc.GetPost(ctx, actorID, postID); err != nil {
		return nil, err
	}
	comment := &model.Comment{
		PostID:   postID,
		AuthorID: actorID,
		Content:  body,
	}
	if err := svc.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("content: create comment: %w", err)
	}
	return comment, nil
}

// ListComments returns a post's comments, pinned first then oldest first,
// if the post is visible to the viewer.
func (svc *Service) ListComments(ctx context.Context, viewerID, postID int64) ([]model.Comment, error) {
	if _, err := svc.GetPost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	comments := make([]model.Comment, 0)
	err := svc.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("pinned DESC, created_at ASC").
		Find(&comments).Error
	return comments, err
}

// DeleteComment removes a comment. The comment's author, the post's author
// and admins may delete.
func (svc *Service) DeleteComment(ctx context.Context, actorID, commentID int64) error {
	var comment model.Comment
	err := svc.db.WithContext(ctx).First(&comment, commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}

	ok, err := svc.policy.CanMutate(ctx, actorID, comment.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		var post model.Post
		if err := svc.db.WithContext(ctx).First(&post, comment.PostID).Error; err == nil {
			ok, err = svc.policy.CanMutate(ctx, actorID, post.AuthorID)
			if err != nil {
				return err
			}
		}
	}
	if !ok {
		return ErrForbidden
	}

	return svc.db.WithContext(ctx).Delete(&model.Comment{}, commentID).Error
}

// Vote toggles the actor's star rating on a post: a new value creates or
// overwrites the vote, repeating the current value retracts it.
func (svc *Service) Vote(ctx context.Context, actorID, postID int64, stars int) (string, error) {
	if stars < 1 || stars > 5 {
		return "", ErrInvalidStars
	}
	if _, err := svc.GetPost(ctx, actorID, postID); err != nil {
		return "", err
	}

	var msg string
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vote model.Vote
		err := tx.Where("post_id = ? AND profile_id = ?", postID, actorID).First(&vote).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			msg = fmt.Sprintf("voted %d stars", stars)
			return tx.Create(&model.Vote{PostID: postID, ProfileID: actorID, Value: stars}).Error
		case err != nil:
			return err
		case vote.Value == stars:
			msg = "vote removed"
			return tx.Delete(&model.Vote{}, vote.ID).Error
		default:
			msg = fmt.Sprintf("vote changed to %d stars", stars)
			return tx.Model(&model.Vote{}).Where("id = ?", vote.ID).Update("value", stars).Error
		}
	})
	if err != nil {
		return "", err
	}
	return msg, nil
}

// PostScore returns the total stars given to a post.
func (svc *Service) PostScore(ctx context.Context, postID int64) (int64, error) {
	var total int64
	err := svc.db.WithContext(ctx).Model(&model.Vote{}).
		Where("post_id = ?", postID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&total).Error
	return total, err
}

// slugify lowercases a title and replaces runs of non-alphanumerics with
// single hyphens, truncated to fit the column.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
