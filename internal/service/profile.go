package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/cache"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

type ProfileInput struct {
	FullName    *string `json:"fullName"`
	Title       *string `json:"title"`
	Bio         *string `json:"bio"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Location    *string `json:"location"`
	AvatarURL   *string `json:"avatarUrl"`
	HeaderImage *string `json:"headerImage"`
}

func (in ProfileInput) apply(p *model.Profile) {
	p.FullName = trimmed(in.FullName, p.FullName)
	p.Title = trimmed(in.Title, p.Title)
	p.Bio = trimmed(in.Bio, p.Bio)
	p.Email = trimmed(in.Email, p.Email)
	p.Phone = trimmed(in.Phone, p.Phone)
	p.Location = trimmed(in.Location, p.Location)
	p.AvatarURL = trimmed(in.AvatarURL, p.AvatarURL)
	p.HeaderImage = trimmed(in.HeaderImage, p.HeaderImage)
}

func validateProfile(p *model.Profile) error {
	v := apperror.NewValidator()
	checkLength(v, "fullName", p.FullName, 1, 100)
	checkLength(v, "title", p.Title, 1, 200)
	if p.Email != "" {
		v.Check(isEmail(p.Email), "email", "email must be a valid email address")
	}
	return v.Err()
}

type ResumeInput struct {
	Filename *string `json:"filename"`
	URL      *string `json:"url"`
}

// isFileURL accepts absolute http(s) URLs and paths under /uploads/.
func isFileURL(s string) bool {
	return isHTTPURL(s) || (strings.HasPrefix(s, "/uploads/") && !strings.Contains(s, ".."))
}

// ProfileService manages the two singletons, the owner's profile and the
// downloadable resume. Writes are upserts against the one live row.
type ProfileService struct {
	profiles repository.ProfileRepository
	resumes  repository.ResumeRepository
	cache    *cache.Cache
	logger   *slog.Logger
}

func NewProfileService(profiles repository.ProfileRepository, resumes repository.ResumeRepository, c *cache.Cache, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, resumes: resumes, cache: c, logger: logger}
}

func (s *ProfileService) Profile(ctx context.Context) (*model.Profile, error) {
	return cache.Get(s.cache, cache.Profile, func() (*model.Profile, error) {
		return s.profiles.GetProfile(ctx)
	})
}

// SaveProfile merges in over the current profile, or over an empty one
// when none exists yet, and stores the result. created reports whether a
// new row was inserted.
func (s *ProfileService) SaveProfile(ctx context.Context, in ProfileInput) (*model.Profile, bool, error) {
	profile, err := s.profiles.GetProfile(ctx)
	if errors.Is(err, apperror.ErrNotFound) {
		profile, err = &model.Profile{}, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("service/profile: loading: %w", err)
	}

	in.apply(profile)
	if err := validateProfile(profile); err != nil {
		return nil, false, err
	}

	created, err := s.profiles.SaveProfile(ctx, profile)
	if err != nil {
		logFailure(s.logger, "failed to save profile", err)
		return nil, false, fmt.Errorf("service/profile: saving: %w", err)
	}
	s.cache.Invalidate(cache.Profile)

	s.logger.Info("profile saved", slog.String("id", profile.ID), slog.Bool("created", created))
	return profile, created, nil
}

func (s *ProfileService) Resume(ctx context.Context) (*model.Resume, error) {
	return cache.Get(s.cache, cache.Resume, func() (*model.Resume, error) {
		return s.resumes.GetResume(ctx)
	})
}

// SaveResume points the resume at a new file. uploadedAt is reset by the
// repository on every save.
func (s *ProfileService) SaveResume(ctx context.Context, in ResumeInput) (*model.Resume, bool, error) {
	resume, err := s.resumes.GetResume(ctx)
	if errors.Is(err, apperror.ErrNotFound) {
		resume, err = &model.Resume{}, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("service/resume: loading: %w", err)
	}

	resume.Filename = trimmed(in.Filename, resume.Filename)
	resume.URL = trimmed(in.URL, resume.URL)

	v := apperror.NewValidator()
	checkLength(v, "filename", resume.Filename, 1, 255)
	if v.Require("url", resume.URL) {
		v.Check(isFileURL(resume.URL), "url", "url must be an http(s) URL or an /uploads/ path")
	}
	if err := v.Err(); err != nil {
		return nil, false, err
	}

	created, err := s.resumes.SaveResume(ctx, resume)
	if err != nil {
		logFailure(s.logger, "failed to save resume", err)
		return nil, false, fmt.Errorf("service/resume: saving: %w", err)
	}
	s.cache.Invalidate(cache.Resume)

	s.logger.Info("resume saved", slog.String("id", resume.ID), slog.String("filename", resume.Filename))
	return resume, created, nil
}

func (s *ProfileService) DeleteResume(ctx context.Context, id string) error {
	if err := requireID("resume", id); err != nil {
		return err
	}
	if err := s.resumes.DeleteResume(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete resume", err, slog.String("id", id))
		return fmt.Errorf("service/resume: deleting %s: %w", id, err)
	}
	s.cache.Invalidate(cache.Resume)

	s.logger.Info("resume deleted", slog.String("id", id))
	return nil
}
