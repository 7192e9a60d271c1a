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

// SkillInput is the request body for creating or patching a skill.
type SkillInput struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Level    *int    `json:"level"`
}

func (in SkillInput) apply(s *model.Skill) {
	s.Name = trimmed(in.Name, s.Name)
	s.Category = trimmed(in.Category, s.Category)
	if in.Level != nil {
		s.Level = *in.Level
	}
}

func validateSkill(v *apperror.Validator, s *model.Skill) error {
	checkLength(v, "name", s.Name, 1, 100)
	checkLength(v, "category", s.Category, 1, 50)
	v.Check(s.Level >= 0 && s.Level <= 100, "level", "level must be between 0 and 100")
	return v.Err()
}

type SkillService struct {
	repo   repository.SkillRepository
	cache  *cache.Cache
	logger *slog.Logger
}

func NewSkillService(repo repository.SkillRepository, c *cache.Cache, logger *slog.Logger) *SkillService {
	return &SkillService{repo: repo, cache: c, logger: logger}
}

// List returns every skill ordered by category, then name.
func (s *SkillService) List(ctx context.Context) ([]model.Skill, error) {
	skills, err := cache.Get(s.cache, cache.Skills, func() ([]model.Skill, error) {
		return s.repo.ListSkills(ctx)
	})
	if err != nil {
		s.logger.Error("failed to list skills", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/skill: listing: %w", err)
	}
	return skills, nil
}

func (s *SkillService) Get(ctx context.Context, id string) (*model.Skill, error) {
	if err := requireID("skill", id); err != nil {
		return nil, err
	}
	return s.repo.GetSkill(ctx, id)
}

func (s *SkillService) Create(ctx context.Context, in SkillInput) (*model.Skill, error) {
	skill := &model.Skill{}
	in.apply(skill)

	v := apperror.NewValidator()
	v.Check(in.Level != nil, "level", "level is required")
	if err := validateSkill(v, skill); err != nil {
		return nil, err
	}

	if err := s.repo.CreateSkill(ctx, skill); err != nil {
		logFailure(s.logger, "failed to create skill", err)
		return nil, fmt.Errorf("service/skill: creating: %w", err)
	}
	s.cache.Invalidate(cache.Skills)

	s.logger.Info("skill created", slog.String("id", skill.ID), slog.String("name", skill.Name))
	return skill, nil
}

// Update applies the non-nil fields of in to the stored skill.
func (s *SkillService) Update(ctx context.Context, id string, in SkillInput) (*model.Skill, error) {
	if err := requireID("skill", id); err != nil {
		return nil, err
	}
	skill, err := s.repo.GetSkill(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(skill)
	if err := validateSkill(apperror.NewValidator(), skill); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSkill(ctx, skill); err != nil {
		logFailure(s.logger, "failed to update skill", err, slog.String("id", id))
		return nil, fmt.Errorf("service/skill: updating %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Skills)

	s.logger.Info("skill updated", slog.String("id", id))
	return skill, nil
}

func (s *SkillService) Delete(ctx context.Context, id string) error {
	if err := requireID("skill", id); err != nil {
		return err
	}
	if err := s.repo.DeleteSkill(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete skill", err, slog.String("id", id))
		return fmt.Errorf("service/skill: deleting %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Skills)

	s.logger.Info("skill deleted", slog.String("id", id))
	return nil
}
