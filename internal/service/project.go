package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/cache"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

type ProjectInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
	Image       *string   `json:"image"`
	DemoURL     *string   `json:"demoUrl"`
	GitHubURL   *string   `json:"githubUrl"`
}

func (in ProjectInput) apply(p *model.Project) {
	p.Title = trimmed(in.Title, p.Title)
	p.Description = trimmed(in.Description, p.Description)
	p.Category = trimmed(in.Category, p.Category)
	p.Image = trimmed(in.Image, p.Image)
	p.DemoURL = trimmed(in.DemoURL, p.DemoURL)
	p.GitHubURL = trimmed(in.GitHubURL, p.GitHubURL)
	if in.Tags != nil {
		p.Tags = cleanList(*in.Tags)
	}
	if p.Tags == nil {
		p.Tags = model.StringList{}
	}
}

func validateProject(p *model.Project) error {
	v := apperror.NewValidator()
	checkLength(v, "title", p.Title, 1, 200)
	v.Require("description", p.Description)
	checkLength(v, "category", p.Category, 1, 50)
	v.Require("image", p.Image)
	if p.DemoURL != "" {
		v.Check(isHTTPURL(p.DemoURL), "demoUrl", "demoUrl must be an http(s) URL")
	}
	if p.GitHubURL != "" {
		v.Check(isHTTPURL(p.GitHubURL), "githubUrl", "githubUrl must be an http(s) URL")
	}
	return v.Err()
}

type ProjectService struct {
	repo   repository.ProjectRepository
	cache  *cache.Cache
	logger *slog.Logger
}

func NewProjectService(repo repository.ProjectRepository, c *cache.Cache, logger *slog.Logger) *ProjectService {
	return &ProjectService{repo: repo, cache: c, logger: logger}
}

// List returns every project, newest first.
func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	projects, err := cache.Get(s.cache, cache.Projects, func() ([]model.Project, error) {
		return s.repo.ListProjects(ctx)
	})
	if err != nil {
		s.logger.Error("failed to list projects", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/project: listing: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	if err := requireID("project", id); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, id)
}

func (s *ProjectService) Create(ctx context.Context, in ProjectInput) (*model.Project, error) {
	project := &model.Project{}
	in.apply(project)
	if err := validateProject(project); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProject(ctx, project); err != nil {
		logFailure(s.logger, "failed to create project", err)
		return nil, fmt.Errorf("service/project: creating: %w", err)
	}
	s.cache.Invalidate(cache.Projects)

	s.logger.Info("project created", slog.String("id", project.ID), slog.String("title", project.Title))
	return project, nil
}

// Update applies the non-nil fields of in. Sending "" for demoUrl or
// githubUrl clears the link.
func (s *ProjectService) Update(ctx context.Context, id string, in ProjectInput) (*model.Project, error) {
	if err := requireID("project", id); err != nil {
		return nil, err
	}
	project, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(project)
	if err := validateProject(project); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProject(ctx, project); err != nil {
		logFailure(s.logger, "failed to update project", err, slog.String("id", id))
		return nil, fmt.Errorf("service/project: updating %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Projects)

	s.logger.Info("project updated", slog.String("id", id))
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := requireID("project", id); err != nil {
		return err
	}
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete project", err, slog.String("id", id))
		return fmt.Errorf("service/project: deleting %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Projects)

	s.logger.Info("project deleted", slog.String("id", id))
	return nil
}
