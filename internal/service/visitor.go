package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

// VisitorTokenLength is the length of a visitor cookie value.
const VisitorTokenLength = 21

// ValidVisitorToken reports whether s looks like a token this server
// issued. Anything else is treated as no token at all.
func ValidVisitorToken(s string) bool {
	if len(s) != VisitorTokenLength {
		return false
	}
	for _, r := range s {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
		if !ok {
			return false
		}
	}
	return true
}

// NewVisitorToken returns a fresh random visitor token.
func NewVisitorToken() (string, error) {
	return gonanoid.New(VisitorTokenLength)
}

// VisitorService counts visits. Identity is the visitor cookie only: a
// browser that clears its cookies is counted as a new unique visitor.
type VisitorService struct {
	repo   repository.VisitorRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewVisitorService(repo repository.VisitorRepository, logger *slog.Logger) *VisitorService {
	return &VisitorService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Track records one visit. When token is empty or malformed a new one is
// issued; the token actually used is returned so the caller can set it.
func (s *VisitorService) Track(ctx context.Context, token string) (*model.VisitResult, string, error) {
	if !ValidVisitorToken(token) {
		var err error
		if token, err = NewVisitorToken(); err != nil {
			return nil, "", fmt.Errorf("service/visitor: generating token: %w", err)
		}
	}

	res, err := s.repo.TrackVisit(ctx, token, s.now())
	if err != nil {
		s.logger.Error("failed to track visit", slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("service/visitor: tracking: %w", err)
	}

	s.logger.Debug("visit tracked",
		slog.Bool("new", res.IsNewVisitor),
		slog.Int64("total", res.TotalVisitors),
	)
	return res, token, nil
}

func (s *VisitorService) Stats(ctx context.Context) (*model.VisitorStats, error) {
	return s.repo.VisitorStats(ctx)
}

// EngagementResult answers a recorded action.
type EngagementResult struct {
	Awarded     bool        `json:"awarded"`
	Points      int         `json:"points"`
	TotalPoints int         `json:"totalPoints"`
	Level       model.Level `json:"level"`
}

// VisitorSummary is a visitor's standing across all posts.
type VisitorSummary struct {
	TotalPoints int                `json:"totalPoints"`
	Level       model.Level        `json:"level"`
	Actions     []model.Engagement `json:"actions"`
}

// PostEngagement is the public tally of a post, plus the caller's own
// actions on it.
type PostEngagement struct {
	PostID string               `json:"postId"`
	Counts map[model.Action]int `json:"counts"`
	Mine   []model.Action       `json:"mine"`
}

// EngagementService is the reading ledger. Each (visitor, post, action)
// earns its points once; repeating an action is accepted and awards
// nothing.
type EngagementService struct {
	ledger repository.EngagementRepository
	posts  repository.BlogRepository
	logger *slog.Logger
}

func NewEngagementService(ledger repository.EngagementRepository, posts repository.BlogRepository, logger *slog.Logger) *EngagementService {
	return &EngagementService{ledger: ledger, posts: posts, logger: logger}
}

func (s *EngagementService) Record(ctx context.Context, visitorID, postID string, action model.Action) (*EngagementResult, error) {
	points, ok := action.Points()
	if !ok {
		return nil, apperror.ValidationFailed("action", fmt.Sprintf("unknown action %q", action))
	}
	if !ValidVisitorToken(visitorID) {
		return nil, apperror.ValidationFailed("visitor", "a visitor token is required")
	}
	if err := requireID("blog post", postID); err != nil {
		return nil, err
	}

	awarded, err := s.ledger.AwardEngagement(ctx, &model.Engagement{
		VisitorID: visitorID,
		PostID:    postID,
		Action:    action,
		Points:    points,
	})
	if err != nil {
		logFailure(s.logger, "failed to record engagement", err, slog.String("postID", postID))
		return nil, fmt.Errorf("service/engagement: recording: %w", err)
	}

	summary, err := s.Visitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	res := &EngagementResult{
		Awarded:     awarded,
		TotalPoints: summary.TotalPoints,
		Level:       summary.Level,
	}
	if awarded {
		res.Points = points
		s.logger.Info("engagement awarded",
			slog.String("postID", postID),
			slog.String("action", string(action)),
			slog.Int("points", points),
		)
	}
	return res, nil
}

// Visitor sums a visitor's ledger. An unknown visitor has zero points.
func (s *EngagementService) Visitor(ctx context.Context, visitorID string) (*VisitorSummary, error) {
	summary := &VisitorSummary{Level: model.LevelFor(0), Actions: []model.Engagement{}}
	if !ValidVisitorToken(visitorID) {
		return summary, nil
	}

	actions, err := s.ledger.VisitorEngagements(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("service/engagement: loading visitor ledger: %w", err)
	}
	for _, e := range actions {
		summary.TotalPoints += e.Points
	}
	summary.Level = model.LevelFor(summary.TotalPoints)
	if actions != nil {
		summary.Actions = actions
	}
	return summary, nil
}

// Post returns the tally for postID. visitorID may be empty.
func (s *EngagementService) Post(ctx context.Context, postID, visitorID string) (*PostEngagement, error) {
	if err := requireID("blog post", postID); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	counts, err := s.ledger.PostEngagementCounts(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("service/engagement: counting post %s: %w", postID, err)
	}
	out := &PostEngagement{PostID: postID, Counts: make(map[model.Action]int), Mine: []model.Action{}}
	for _, a := range model.Actions() {
		out.Counts[a] = counts[a]
	}

	summary, err := s.Visitor(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	for _, e := range summary.Actions {
		if e.PostID == postID {
			out.Mine = append(out.Mine, e.Action)
		}
	}
	return out, nil
}
