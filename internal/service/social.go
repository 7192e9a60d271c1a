package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/cache"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

type SocialInput struct {
	Name *string `json:"name"`
	URL  *string `json:"url"`
	Icon *string `json:"icon"`
}

func (in SocialInput) apply(s *model.Social) {
	s.Name = trimmed(in.Name, s.Name)
	s.URL = trimmed(in.URL, s.URL)
	s.Icon = trimmed(in.Icon, s.Icon)
}

func validateSocial(s *model.Social) error {
	v := apperror.NewValidator()
	checkLength(v, "name", s.Name, 1, 50)
	if v.Require("url", s.URL) {
		ok := isHTTPURL(s.URL) || (strings.HasPrefix(s.URL, "mailto:") && isEmail(strings.TrimPrefix(s.URL, "mailto:")))
		v.Check(ok, "url", "url must be an http(s) or mailto: link")
	}
	v.Require("icon", s.Icon)
	return v.Err()
}

type SocialService struct {
	repo   repository.SocialRepository
	cache  *cache.Cache
	logger *slog.Logger
}

func NewSocialService(repo repository.SocialRepository, c *cache.Cache, logger *slog.Logger) *SocialService {
	return &SocialService{repo: repo, cache: c, logger: logger}
}

func (s *SocialService) List(ctx context.Context) ([]model.Social, error) {
	socials, err := cache.Get(s.cache, cache.Socials, func() ([]model.Social, error) {
		return s.repo.ListSocials(ctx)
	})
	if err != nil {
		s.logger.Error("failed to list socials", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/social: listing: %w", err)
	}
	return socials, nil
}

func (s *SocialService) Get(ctx context.Context, id string) (*model.Social, error) {
	if err := requireID("social", id); err != nil {
		return nil, err
	}
	return s.repo.GetSocial(ctx, id)
}

func (s *SocialService) Create(ctx context.Context, in SocialInput) (*model.Social, error) {
	social := &model.Social{}
	in.apply(social)
	if err := validateSocial(social); err != nil {
		return nil, err
	}

	if err := s.repo.CreateSocial(ctx, social); err != nil {
		logFailure(s.logger, "failed to create social", err)
		return nil, fmt.Errorf("service/social: creating: %w", err)
	}
	s.cache.Invalidate(cache.Socials)

	s.logger.Info("social created", slog.String("id", social.ID), slog.String("name", social.Name))
	return social, nil
}

func (s *SocialService) Update(ctx context.Context, id string, in SocialInput) (*model.Social, error) {
	if err := requireID("social", id); err != nil {
		return nil, err
	}
	social, err := s.repo.GetSocial(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(social)
	if err := validateSocial(social); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSocial(ctx, social); err != nil {
		logFailure(s.logger, "failed to update social", err, slog.String("id", id))
		return nil, fmt.Errorf("service/social: updating %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Socials)

	s.logger.Info("social updated", slog.String("id", id))
	return social, nil
}

func (s *SocialService) Delete(ctx context.Context, id string) error {
	if err := requireID("social", id); err != nil {
		return err
	}
	if err := s.repo.DeleteSocial(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete social", err, slog.String("id", id))
		return fmt.Errorf("service/social: deleting %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Socials)

	s.logger.Info("social deleted", slog.String("id", id))
	return nil
}
