package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

var _ repository.BlogRepository = (*DB)(nil)

const postColumns = `id, title, slug, content, summary, featured_image, tags, reading_time, is_ai_generated, published_at, updated_at`

func scanPost(row rowScanner) (model.BlogPost, error) {
	var p model.BlogPost
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Summary, &p.FeaturedImage,
		&p.Tags, &p.ReadingTime, &p.IsAIGenerated, &p.PublishedAt, &p.UpdatedAt,
	)
	p.PublishedAt = p.PublishedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, err
}

// ListPosts returns posts newest first.
func (db *DB) ListPosts(ctx context.Context) ([]model.BlogPost, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts ORDER BY published_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing blog posts: %w", err)
	}
	defer rows.Close()

	posts := []model.BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning blog post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating blog post rows: %w", err)
	}
	return posts, nil
}

func (db *DB) GetPost(ctx context.Context, id string) (*model.BlogPost, error) {
	p, err := scanPost(db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("blog post", id)
		}
		return nil, fmt.Errorf("sqlite: getting blog post %s: %w", id, err)
	}
	return &p, nil
}

func (db *DB) GetPostBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	p, err := scanPost(db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM blog_posts WHERE slug = ?`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundf("blog post not found with slug %s", slug)
		}
		return nil, fmt.Errorf("sqlite: getting blog post by slug %q: %w", slug, err)
	}
	return &p, nil
}

// CreatePost inserts a post. A zero PublishedAt means "now"; the seed sets
// its own dates.
//
// The slug's UNIQUE index is the only uniqueness check: a SELECT-then-INSERT
// would race with a concurrent create of the same slug.
func (db *DB) CreatePost(ctx context.Context, post *model.BlogPost) error {
	ts := now()
	post.ID = xid.New().String()
	if post.PublishedAt.IsZero() {
		post.PublishedAt = ts
	}
	post.PublishedAt = post.PublishedAt.UTC()
	post.UpdatedAt = ts
	if post.Tags == nil {
		post.Tags = model.StringList{}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO blog_posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.Slug, post.Content, post.Summary, post.FeaturedImage,
		post.Tags, post.ReadingTime, post.IsAIGenerated, post.PublishedAt, post.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflictf("a blog post with slug %q already exists", post.Slug)
		}
		return fmt.Errorf("sqlite: inserting blog post: %w", err)
	}
	return nil
}

func (db *DB) UpdatePost(ctx context.Context, post *model.BlogPost) error {
	post.UpdatedAt = now()
	if post.PublishedAt.IsZero() {
		post.PublishedAt = post.UpdatedAt
	}
	post.PublishedAt = post.PublishedAt.UTC()
	if post.Tags == nil {
		post.Tags = model.StringList{}
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE blog_posts
		 SET title = ?, slug = ?, content = ?, summary = ?, featured_image = ?, tags = ?,
		     reading_time = ?, is_ai_generated = ?, published_at = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title, post.Slug, post.Content, post.Summary, post.FeaturedImage, post.Tags,
		post.ReadingTime, post.IsAIGenerated, post.PublishedAt, post.UpdatedAt, post.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflictf("a blog post with slug %q already exists", post.Slug)
		}
		return fmt.Errorf("sqlite: updating blog post %s: %w", post.ID, err)
	}
	return checkAffected(result, "blog post", post.ID)
}

// DeletePost removes a post; its comments and engagement rows go with it
// through ON DELETE CASCADE.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting blog post %s: %w", id, err)
	}
	return checkAffected(result, "blog post", id)
}

// =========================================================================
// COMMENTS
// =========================================================================

// ListComments returns a post's comments oldest first, reading order for a
// thread.
func (db *DB) ListComments(ctx context.Context, postID string) ([]model.BlogComment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, post_id, name, email, comment, created_at
		 FROM blog_comments WHERE post_id = ? ORDER BY created_at ASC, id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for post %s: %w", postID, err)
	}
	defer rows.Close()

	comments := []model.BlogComment{}
	for rows.Next() {
		var c model.BlogComment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Name, &c.Email, &c.Comment, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comment rows: %w", err)
	}
	return comments, nil
}

// CreateComment inserts a comment. The post's existence is enforced by the
// foreign key, so a comment on a missing post is reported as NotFound.
func (db *DB) CreateComment(ctx context.Context, comment *model.BlogComment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO blog_comments (id, post_id, name, email, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.PostID, comment.Name, comment.Email, comment.Comment, comment.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("blog post", comment.PostID)
		}
		return fmt.Errorf("sqlite: inserting comment on post %s: %w", comment.PostID, err)
	}
	return nil
}

func (db *DB) DeleteComment(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM blog_comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}
	return checkAffected(result, "comment", id)
}
