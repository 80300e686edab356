package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/squeak-be/internal/auth"
	"github.com/hongminglow/squeak-be/internal/metrics"
	"github.com/hongminglow/squeak-be/internal/models"
	"github.com/hongminglow/squeak-be/internal/storage"
)

// PostService owns post creation, reads, and owner-only deletion.
type PostService struct {
	posts storage.PostStore
	log   logrus.FieldLogger
}

// NewPostService wires the service.
func NewPostService(posts storage.PostStore, log logrus.FieldLogger) *PostService {
	return &PostService{posts: posts, log: log}
}

// CreatePostInput carries the fields of a new post.
type CreatePostInput struct {
	Title string
	Desc  string
	// Username is optional; when set it must name the principal.
	Username string
}

// CreatePost attributes the post to the principal.
func (s *PostService) CreatePost(ctx context.Context, principal auth.Principal, in CreatePostInput) (post models.Post, err error) {
	defer func() { metrics.RecordEvent(metrics.EventCreatePost, err) }()

	if principal.IsZero() {
		return models.Post{}, ErrUnauthorized
	}
	if strings.TrimSpace(in.Desc) == "" {
		return models.Post{}, newError(KindInvalid, "desc is required", nil)
	}
	if in.Username != "" && !auth.OwnsResource(principal.Username, in.Username) {
		s.log.WithFields(logrus.Fields{"actor": principal.Username, "claimed": in.Username}).Warn("post rejected: username is not the caller")
		return models.Post{}, newError(KindForbidden, "you can only post as yourself", nil)
	}

	created, err := s.posts.CreatePost(ctx, models.Post{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Desc,
		Username:    principal.Username,
	})
	if err != nil {
		s.log.WithError(err).WithField("username", principal.Username).Error("failed to create post")
		return models.Post{}, mapStoreError(err, "post not found")
	}
	return created, nil
}

// GetPost returns one post or NotFound.
func (s *PostService) GetPost(ctx context.Context, id string) (models.Post, error) {
	post, err := s.posts.FindPostByID(ctx, id)
	if err != nil {
		return models.Post{}, mapStoreError(err, "post not found")
	}
	return post, nil
}

// ListPosts returns every post in creation order.
func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to list posts")
		return nil, mapStoreError(err, "post not found")
	}
	return posts, nil
}

// ListPostsByUsername returns an empty slice when the user has no posts.
func (s *PostService) ListPostsByUsername(ctx context.Context, username string) ([]models.Post, error) {
	posts, err := s.posts.ListPostsByUsername(ctx, username)
	if err != nil {
		s.log.WithError(err).WithField("username", username).Error("failed to list posts by username")
		return nil, mapStoreError(err, "post not found")
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// DeletePost removes a post owned by the principal.
func (s *PostService) DeletePost(ctx context.Context, principal auth.Principal, id string) (err error) {
	defer func() { metrics.RecordEvent(metrics.EventDeletePost, err) }()

	if principal.IsZero() {
		return ErrUnauthorized
	}
	post, err := s.posts.FindPostByID(ctx, id)
	if err != nil {
		return mapStoreError(err, "post not found")
	}
	if !auth.OwnsResource(principal.Username, post.Username) {
		s.log.WithFields(logrus.Fields{"actor": principal.Username, "owner": post.Username, "post_id": id}).Warn("delete rejected: not the post owner")
		return newError(KindForbidden, "you can delete only your post", nil)
	}
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return mapStoreError(err, "post not found")
	}
	return nil
}
