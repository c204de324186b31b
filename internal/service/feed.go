package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
	"github.com/mkowalczyk/dsn-service/internal/model"
	"github.com/mkowalczyk/dsn-service/internal/repository"
)

// PostView is a feed row annotated for a particular viewer. Liked is
// derived from LikedBy membership at read time and never stored.
type PostView struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Author     string `json:"author"`
	AuthorLink string `json:"authorLink"`
	Likes      int    `json:"likes"`
	Liked      bool   `json:"liked"`
}

// FeedService handles the public "informations" feed: CRUD scoped by
// ownership, plus the like toggle and replies open to any authenticated user.
type FeedService struct {
	posts  repository.PostRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewFeedService creates a FeedService.
func NewFeedService(posts repository.PostRepository, logger *slog.Logger) *FeedService {
	return &FeedService{
		posts:  posts,
		logger: logger,
		now:    time.Now,
	}
}

// List returns all posts in stored order (newest first — Create prepends),
// annotated with the viewer's like state. viewer may be empty (anonymous).
func (s *FeedService) List(ctx context.Context, viewer string) ([]PostView, error) {
	posts, err := s.posts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/feed: loading posts: %w", err)
	}

	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, viewOf(p, viewer))
	}
	return out, nil
}

// ByAuthor returns the given author's posts, in feed order.
func (s *FeedService) ByAuthor(ctx context.Context, author string) ([]PostView, error) {
	posts, err := s.posts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/feed: loading posts: %w", err)
	}

	out := []PostView{}
	for _, p := range posts {
		if p.Author == author {
			out = append(out, viewOf(p, author))
		}
	}
	return out, nil
}

// Get returns the full post record, replies and all.
func (s *FeedService) Get(ctx context.Context, id int64) (*model.Post, error) {
	posts, err := s.posts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/feed: loading posts: %w", err)
	}

	for i := range posts {
		if posts[i].ID == id {
			p := posts[i]
			return &p, nil
		}
	}
	return nil, apperror.NotFound("information", strconv.FormatInt(id, 10))
}

// Create validates and prepends a new post. New posts go to the FRONT of
// the collection so the stored order is the display order (newest first).
func (s *FeedService) Create(ctx context.Context, author, title, content string) (*model.Post, error) {
	if title == "" || content == "" {
		return nil, apperror.ValidationFailed("title", "title and content required")
	}

	posts, err := s.posts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/feed: loading posts: %w", err)
	}

	post := model.Post{
		ID:      s.now().UnixMilli(),
		Title:   title,
		Content: content,
		Author:  author,
		Likes:   0,
		LikedBy: []string{},
	}
	posts = append([]model.Post{post}, posts...)

	if err := s.posts.Replace(ctx, posts); err != nil {
		return nil, fmt.Errorf("service/feed: saving posts: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("id", post.ID),
		slog.String("author", author),
	)
	return &post, nil
}

// Update changes the title and/or content of the caller's own post.
// Empty arguments leave the corresponding field untouched.
func (s *FeedService) Update(ctx context.Context, actor string, id int64, title, content string) (*model.Post, error) {
	posts, err := s.posts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/feed: loading posts: %w", err)
	}

	post := findPost(posts, id)
	if post == nil {
		return nil, apperror.NotFound("information", strconv.FormatInt(id, 10))
	}
	if !canModify(*post, actor) {
		return nil, apperror.Forbidden("only the author may edit this information")
	}

	if title != "" {
		post.Title = title
	}
	if content != "" {
		post.Content = content
	}

	if err := s.posts.Replace(ctx, posts); err != nil {
		return nil, fmt.Errorf("service/feed: saving posts: %w", err)
	}

	result := *post
	return &result, nil
}

// Delete removes the caller's own post.
func (s *FeedService) Delete(ctx context.Context, actor string, id int64) error {
	posts, err := s.posts.Load(ctx)
	if err != nil {
		return fmt.Errorf("service/feed: loading posts: %w", err)
	}

	idx := -1
	for i := range posts {
		if posts[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperror.NotFound("information", strconv.FormatInt(id, 10))
	}
	if !canModify(posts[idx], actor) {
		return apperror.Forbidden("only the author may delete this information")
	}

	posts = append(posts[:idx], posts[idx+1:]...)

	if err := s.posts.Replace(ctx, posts); err != nil {
		return fmt.Errorf("service/feed: saving posts: %w", err)
	}

	s.logger.Info("post deleted", slog.Int64("id", id), slog.String("author", actor))
	return nil
}

// ToggleLike is its own inverse: if the actor already likes the post the
// like is withdrawn, otherwise it is added. Likes never go below zero, and
// the likes == len(likedBy) invariant holds because both change together.
func (s *FeedService) ToggleLike(ctx context.Context, actor string, id int64) (likes int, liked bool, err error) {
	posts, err := s.posts.Load(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("service/feed: loading posts: %w", err)
	}

	post := findPost(posts, id)
	if post == nil {
		return 0, false, apperror.NotFound("information", strconv.FormatInt(id, 10))
	}

	idx := -1
	for i, u := range post.LikedBy {
		if u == actor {
			idx = i
			break
		}
	}

	if idx == -1 {
		post.LikedBy = append(post.LikedBy, actor)
		post.Likes++
	} else {
		post.LikedBy = append(post.LikedBy[:idx], post.LikedBy[idx+1:]...)
		if post.Likes > 0 {
			post.Likes--
		}
	}

	if err := s.posts.Replace(ctx, posts); err != nil {
		return 0, false, fmt.Errorf("service/feed: saving posts: %w", err)
	}

	return post.Likes, post.LikedByUser(actor), nil
}

// Reply appends a reply to a post. No ownership restriction — any
// authenticated user may reply to any post.
func (s *FeedService) Reply(ctx context.Context, actor string, id int64, text string) error {
	if text == "" {
		return apperror.ValidationFailed("text", "text required")
	}

	posts, err := s.posts.Load(ctx)
	if err != nil {
		return fmt.Errorf("service/feed: loading posts: %w", err)
	}

	post := findPost(posts, id)
	if post == nil {
		return apperror.NotFound("information", strconv.FormatInt(id, 10))
	}

	now := s.now().UnixMilli()
	post.Replies = append(post.Replies, model.Reply{
		ID:        now,
		Author:    actor,
		Text:      text,
		Timestamp: now,
	})

	if err := s.posts.Replace(ctx, posts); err != nil {
		return fmt.Errorf("service/feed: saving posts: %w", err)
	}
	return nil
}

func viewOf(p model.Post, viewer string) PostView {
	return PostView{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		Author:     p.Author,
		AuthorLink: "/profile/" + url.PathEscape(p.Author),
		Likes:      p.Likes,
		Liked:      viewer != "" && p.LikedByUser(viewer),
	}
}

func findPost(posts []model.Post, id int64) *model.Post {
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i]
		}
	}
	return nil
}
