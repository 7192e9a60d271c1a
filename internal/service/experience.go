package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/cache"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

// ExperienceInput is the request body for an experience. An endDate of ""
// marks the position as current.
type ExperienceInput struct {
	Company      *string   `json:"company"`
	JobTitle     *string   `json:"jobTitle"`
	Description  *string   `json:"description"`
	StartDate    *string   `json:"startDate"`
	EndDate      *string   `json:"endDate"`
	Technologies *[]string `json:"technologies"`
}

func (in ExperienceInput) apply(e *model.Experience) {
	e.Company = trimmed(in.Company, e.Company)
	e.JobTitle = trimmed(in.JobTitle, e.JobTitle)
	e.Description = trimmed(in.Description, e.Description)
	e.StartDate = trimmed(in.StartDate, e.StartDate)
	if in.EndDate != nil {
		end := trimmed(in.EndDate, "")
		e.EndDate = &end
	}
	if e.EndDate != nil && *e.EndDate == "" {
		e.EndDate = nil
	}
	if in.Technologies != nil {
		e.Technologies = cleanList(*in.Technologies)
	}
	if e.Technologies == nil {
		e.Technologies = model.StringList{}
	}
}

// parseDate accepts "YYYY-MM" (read as the first of the month) and
// "YYYY-MM-DD".
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func validateExperience(e *model.Experience) error {
	v := apperror.NewValidator()
	v.Require("company", e.Company)
	v.Require("jobTitle", e.JobTitle)
	v.Require("description", e.Description)

	start, startOK := parseDate(e.StartDate)
	if v.Require("startDate", e.StartDate) {
		v.Check(startOK, "startDate", "startDate must be YYYY-MM or YYYY-MM-DD")
	}
	if !e.Current() {
		end, ok := parseDate(*e.EndDate)
		v.Check(ok, "endDate", "endDate must be YYYY-MM or YYYY-MM-DD")
		if ok && startOK {
			v.Check(!end.Before(start), "endDate", "endDate must not be before startDate")
		}
	}
	return v.Err()
}

type ExperienceService struct {
	repo   repository.ExperienceRepository
	cache  *cache.Cache
	logger *slog.Logger
}

func NewExperienceService(repo repository.ExperienceRepository, c *cache.Cache, logger *slog.Logger) *ExperienceService {
	return &ExperienceService{repo: repo, cache: c, logger: logger}
}

// List returns every experience, most recent start date first.
func (s *ExperienceService) List(ctx context.Context) ([]model.Experience, error) {
	exps, err := cache.Get(s.cache, cache.Experiences, func() ([]model.Experience, error) {
		return s.repo.ListExperiences(ctx)
	})
	if err != nil {
		s.logger.Error("failed to list experiences", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/experience: listing: %w", err)
	}
	return exps, nil
}

func (s *ExperienceService) Get(ctx context.Context, id string) (*model.Experience, error) {
	if err := requireID("experience", id); err != nil {
		return nil, err
	}
	return s.repo.GetExperience(ctx, id)
}

func (s *ExperienceService) Create(ctx context.Context, in ExperienceInput) (*model.Experience, error) {
	exp := &model.Experience{}
	in.apply(exp)
	if err := validateExperience(exp); err != nil {
		return nil, err
	}

	if err := s.repo.CreateExperience(ctx, exp); err != nil {
		logFailure(s.logger, "failed to create experience", err)
		return nil, fmt.Errorf("service/experience: creating: %w", err)
	}
	s.cache.Invalidate(cache.Experiences)

	s.logger.Info("experience created", slog.String("id", exp.ID), slog.String("company", exp.Company))
	return exp, nil
}

func (s *ExperienceService) Update(ctx context.Context, id string, in ExperienceInput) (*model.Experience, error) {
	if err := requireID("experience", id); err != nil {
		return nil, err
	}
	exp, err := s.repo.GetExperience(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(exp)
	if err := validateExperience(exp); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateExperience(ctx, exp); err != nil {
		logFailure(s.logger, "failed to update experience", err, slog.String("id", id))
		return nil, fmt.Errorf("service/experience: updating %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Experiences)

	s.logger.Info("experience updated", slog.String("id", id))
	return exp, nil
}

func (s *ExperienceService) Delete(ctx context.Context, id string) error {
	if err := requireID("experience", id); err != nil {
		return err
	}
	if err := s.repo.DeleteExperience(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete experience", err, slog.String("id", id))
		return fmt.Errorf("service/experience: deleting %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Experiences)

	s.logger.Info("experience deleted", slog.String("id", id))
	return nil
}
