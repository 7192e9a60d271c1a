package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/cache"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

const wordsPerMinute = 200

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	htmlTag     = regexp.MustCompile(`<[^>]*>`)
)

// Slugify lowercases title and joins its ASCII letter and digit runs with
// hyphens: "Hello, Go 1.25!" becomes "hello-go-1-25".
func Slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ReadingTime estimates minutes to read HTML content, never less than one.
func ReadingTime(content string) int {
	words := len(strings.Fields(htmlTag.ReplaceAllString(content, " ")))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return max(minutes, 1)
}

type BlogPostInput struct {
	Title         *string    `json:"title"`
	Slug          *string    `json:"slug"`
	Content       *string    `json:"content"`
	Summary       *string    `json:"summary"`
	FeaturedImage *string    `json:"featuredImage"`
	Tags          *[]string  `json:"tags"`
	ReadingTime   *int       `json:"readingTime"`
	IsAIGenerated *bool      `json:"isAiGenerated"`
	PublishedAt   *time.Time `json:"publishedAt"`
}

func (in BlogPostInput) apply(p *model.BlogPost) {
	contentChanged := in.Content != nil && strings.TrimSpace(*in.Content) != p.Content

	p.Title = trimmed(in.Title, p.Title)
	p.Slug = strings.ToLower(trimmed(in.Slug, p.Slug))
	p.Content = trimmed(in.Content, p.Content)
	p.Summary = trimmed(in.Summary, p.Summary)
	p.FeaturedImage = trimmed(in.FeaturedImage, p.FeaturedImage)
	if in.Tags != nil {
		p.Tags = cleanList(*in.Tags)
	}
	if p.Tags == nil {
		p.Tags = model.StringList{}
	}
	if in.IsAIGenerated != nil {
		p.IsAIGenerated = *in.IsAIGenerated
	}
	if in.PublishedAt != nil {
		p.PublishedAt = in.PublishedAt.UTC()
	}

	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}

	switch {
	case in.ReadingTime != nil:
		p.ReadingTime = *in.ReadingTime
	case contentChanged:
		p.ReadingTime = 0
	}
	if p.ReadingTime == 0 && p.Content != "" {
		p.ReadingTime = ReadingTime(p.Content)
	}
}

func validatePost(p *model.BlogPost) error {
	v := apperror.NewValidator()
	checkLength(v, "title", p.Title, 1, 200)
	v.Require("content", p.Content)
	v.Require("summary", p.Summary)
	if p.Title != "" || p.Slug != "" {
		v.Check(slugPattern.MatchString(p.Slug), "slug",
			"slug must be lowercase letters and digits separated by single hyphens")
	}
	v.Check(p.ReadingTime >= 0, "readingTime", "readingTime must not be negative")
	if p.FeaturedImage != "" {
		v.Check(isFileURL(p.FeaturedImage), "featuredImage", "featuredImage must be an http(s) URL or an /uploads/ path")
	}
	return v.Err()
}

type CommentInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Comment string `json:"comment"`
}

// BlogService manages posts and their comments. Slugs are unique; a
// clash is reported as a conflict and nothing is overwritten.
type BlogService struct {
	repo   repository.BlogRepository
	cache  *cache.Cache
	logger *slog.Logger
}

func NewBlogService(repo repository.BlogRepository, c *cache.Cache, logger *slog.Logger) *BlogService {
	return &BlogService{repo: repo, cache: c, logger: logger}
}

// List returns every post, newest first.
func (s *BlogService) List(ctx context.Context) ([]model.BlogPost, error) {
	posts, err := cache.Get(s.cache, cache.Blog, func() ([]model.BlogPost, error) {
		return s.repo.ListPosts(ctx)
	})
	if err != nil {
		s.logger.Error("failed to list blog posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/blog: listing: %w", err)
	}
	return posts, nil
}

func (s *BlogService) Get(ctx context.Context, id string) (*model.BlogPost, error) {
	if err := requireID("blog post", id); err != nil {
		return nil, err
	}
	return s.repo.GetPost(ctx, id)
}

func (s *BlogService) GetBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, apperror.ValidationFailed("slug", "slug is required")
	}
	return s.repo.GetPostBySlug(ctx, slug)
}

func (s *BlogService) Create(ctx context.Context, in BlogPostInput) (*model.BlogPost, error) {
	post := &model.BlogPost{}
	in.apply(post)
	if err := validatePost(post); err != nil {
		return nil, err
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		logFailure(s.logger, "failed to create blog post", err)
		return nil, fmt.Errorf("service/blog: creating: %w", err)
	}
	s.cache.Invalidate(cache.Blog)

	s.logger.Info("blog post created", slog.String("id", post.ID), slog.String("slug", post.Slug))
	return post, nil
}

// Update applies the non-nil fields of in. The slug is kept when the title
// changes so published links keep working; send a slug to change it.
func (s *BlogService) Update(ctx context.Context, id string, in BlogPostInput) (*model.BlogPost, error) {
	if err := requireID("blog post", id); err != nil {
		return nil, err
	}
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(post)
	if err := validatePost(post); err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		logFailure(s.logger, "failed to update blog post", err, slog.String("id", id))
		return nil, fmt.Errorf("service/blog: updating %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Blog)

	s.logger.Info("blog post updated", slog.String("id", id), slog.String("slug", post.Slug))
	return post, nil
}

// Delete removes the post together with its comments and engagement.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := requireID("blog post", id); err != nil {
		return err
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete blog post", err, slog.String("id", id))
		return fmt.Errorf("service/blog: deleting %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Blog)

	s.logger.Info("blog post deleted", slog.String("id", id))
	return nil
}

// Comments lists a post's comments, oldest first.
func (s *BlogService) Comments(ctx context.Context, postID string) ([]model.BlogComment, error) {
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, postID)
}

func (s *BlogService) AddComment(ctx context.Context, postID string, in CommentInput) (*model.BlogComment, error) {
	if err := requireID("blog post", postID); err != nil {
		return nil, err
	}
	c := &model.BlogComment{
		PostID:  postID,
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Comment: strings.TrimSpace(in.Comment),
	}

	v := apperror.NewValidator()
	checkLength(v, "name", c.Name, 1, 100)
	if v.Require("email", c.Email) {
		v.Check(isEmail(c.Email), "email", "email must be a valid email address")
	}
	checkLength(v, "comment", c.Comment, 1, 2000)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateComment(ctx, c); err != nil {
		logFailure(s.logger, "failed to create comment", err, slog.String("postID", postID))
		return nil, fmt.Errorf("service/blog: creating comment: %w", err)
	}

	s.logger.Info("comment created", slog.String("id", c.ID), slog.String("postID", postID))
	return c, nil
}

func (s *BlogService) DeleteComment(ctx context.Context, id string) error {
	if err := requireID("comment", id); err != nil {
		return err
	}
	if err := s.repo.DeleteComment(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete comment", err, slog.String("id", id))
		return fmt.Errorf("service/blog: deleting comment %s: %w", id, err)
	}
	s.logger.Info("comment deleted", slog.String("id", id))
	return nil
}
