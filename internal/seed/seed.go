// Package seed fills an empty database with starter content and creates the
// admin account. It runs once at startup and is safe to run on every start:
// nothing that already exists is touched.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
	"github.com/sakif/portfolio/internal/service"
)

//go:embed seed.yaml
var defaultDocument []byte

// Document is the shape of seed.yaml.
type Document struct {
	Profile model.Profile    `yaml:"profile"`
	Posts   []model.BlogPost `yaml:"posts"`
}

// Parse decodes a seed document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("seed: parsing document: %w", err)
	}
	return &doc, nil
}

// Default returns the embedded document.
func Default() (*Document, error) {
	return Parse(defaultDocument)
}

// Store is everything the seeder writes to.
type Store interface {
	repository.BlogRepository
	repository.ProfileRepository
	repository.CountRepository
}

// Admin is the account to bootstrap. Both fields empty means no admin.
type Admin struct {
	Username string
	Password string
}

type Seeder struct {
	store  Store
	auth   *service.AuthService
	logger *slog.Logger
}

func New(store Store, auth *service.AuthService, logger *slog.Logger) *Seeder {
	return &Seeder{store: store, auth: auth, logger: logger}
}

// Run seeds posts, the profile and the admin, each only when absent.
func (s *Seeder) Run(ctx context.Context, doc *Document, admin Admin) error {
	if err := s.posts(ctx, doc.Posts); err != nil {
		return err
	}
	if err := s.profile(ctx, doc.Profile); err != nil {
		return err
	}
	if admin.Username != "" {
		created, err := s.auth.EnsureAdmin(ctx, admin.Username, admin.Password)
		if err != nil {
			return fmt.Errorf("seed: admin: %w", err)
		}
		if !created {
			s.logger.Debug("admin user already exists", slog.String("username", admin.Username))
		}
	}
	return nil
}

func (s *Seeder) posts(ctx context.Context, posts []model.BlogPost) error {
	n, err := s.store.Count(ctx, repository.TableBlogPosts)
	if err != nil {
		return fmt.Errorf("seed: counting posts: %w", err)
	}
	if n > 0 {
		return nil
	}

	for i := range posts {
		p := posts[i]
		if p.Slug == "" {
			p.Slug = service.Slugify(p.Title)
		}
		if p.ReadingTime == 0 {
			p.ReadingTime = service.ReadingTime(p.Content)
		}
		if err := s.store.CreatePost(ctx, &p); err != nil {
			return fmt.Errorf("seed: creating post %q: %w", p.Slug, err)
		}
	}
	s.logger.Info("seeded blog posts", slog.Int("count", len(posts)))
	return nil
}

func (s *Seeder) profile(ctx context.Context, p model.Profile) error {
	_, err := s.store.GetProfile(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("seed: loading profile: %w", err)
	}

	if _, err := s.store.SaveProfile(ctx, &p); err != nil {
		return fmt.Errorf("seed: saving profile: %w", err)
	}
	s.logger.Info("seeded default profile")
	return nil
}
