package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/portfolio/internal/repository"
)

// Dashboard is the admin overview.
type Dashboard struct {
	Projects       int64   `json:"projects"`
	Skills         int64   `json:"skills"`
	Experiences    int64   `json:"experiences"`
	BlogPosts      int64   `json:"blogPosts"`
	Comments       int64   `json:"comments"`
	Contacts       int64   `json:"contacts"`
	Feedback       int64   `json:"feedback"`
	AverageRating  float64 `json:"averageRating"`
	TotalVisitors  int64   `json:"totalVisitors"`
	UniqueVisitors int64   `json:"uniqueVisitors"`
}

type StatsService struct {
	counts   repository.CountRepository
	feedback repository.FeedbackRepository
	visitors repository.VisitorRepository
}

func NewStatsService(counts repository.CountRepository, feedback repository.FeedbackRepository, visitors repository.VisitorRepository) *StatsService {
	return &StatsService{counts: counts, feedback: feedback, visitors: visitors}
}

// Dashboard gathers every figure concurrently. The first failure cancels
// the rest.
func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	count := func(table repository.Table, dst *int64) {
		g.Go(func() error {
			n, err := s.counts.Count(ctx, table)
			if err != nil {
				return fmt.Errorf("counting %s: %w", table, err)
			}
			*dst = n
			return nil
		})
	}
	count(repository.TableProjects, &d.Projects)
	count(repository.TableSkills, &d.Skills)
	count(repository.TableExperiences, &d.Experiences)
	count(repository.TableBlogPosts, &d.BlogPosts)
	count(repository.TableBlogComments, &d.Comments)
	count(repository.TableContacts, &d.Contacts)
	count(repository.TableFeedback, &d.Feedback)

	g.Go(func() error {
		avg, err := s.feedback.AverageRating(ctx)
		if err != nil {
			return fmt.Errorf("averaging ratings: %w", err)
		}
		d.AverageRating = avg
		return nil
	})
	g.Go(func() error {
		vs, err := s.visitors.VisitorStats(ctx)
		if err != nil {
			return fmt.Errorf("loading visitor stats: %w", err)
		}
		d.TotalVisitors = vs.TotalVisitors
		d.UniqueVisitors = vs.UniqueVisitors
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service/stats: %w", err)
	}
	return &d, nil
}
