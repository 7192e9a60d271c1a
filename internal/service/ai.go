package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/portfolio/internal/ai"
	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/repository"
)

const (
	maxChatMessages     = 50
	maxChatMessageRunes = 4000
	defaultRecommend    = 3
	maxRecommend        = 10
)

// Catalog item types.
const (
	ContentBlog    = "blog"
	ContentProject = "project"
	ContentSkill   = "skill"
)

type GenerateBlogInput struct {
	Title    string   `json:"title"`
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords"`
	Length   string   `json:"length"`
}

type ChatInput struct {
	Messages []ai.Message `json:"messages"`
}

type ContentRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type RecommendInput struct {
	Interests      []string    `json:"interests"`
	CurrentContent *ContentRef `json:"currentContent"`
	Limit          int         `json:"limit"`
}

// Recommendation is a suggestion that was checked against the catalog.
type Recommendation struct {
	Type   string  `json:"type"`
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// AIService validates AI requests and post-processes model output. It never
// stores anything: a generated draft goes back to the admin for editing.
type AIService struct {
	completer ai.Completer
	posts     repository.BlogRepository
	projects  repository.ProjectRepository
	skills    repository.SkillRepository
	logger    *slog.Logger
}

func NewAIService(
	completer ai.Completer,
	posts repository.BlogRepository,
	projects repository.ProjectRepository,
	skills repository.SkillRepository,
	logger *slog.Logger,
) *AIService {
	return &AIService{
		completer: completer,
		posts:     posts,
		projects:  projects,
		skills:    skills,
		logger:    logger,
	}
}

func (s *AIService) GenerateBlog(ctx context.Context, in GenerateBlogInput) (*ai.BlogDraft, error) {
	brief := ai.BlogBrief{
		Title:    strings.TrimSpace(in.Title),
		Topic:    strings.TrimSpace(in.Topic),
		Keywords: cleanList(in.Keywords),
		Length:   strings.ToLower(strings.TrimSpace(in.Length)),
	}
	if brief.Length == "" {
		brief.Length = ai.LengthMedium
	}

	v := apperror.NewValidator()
	v.Check(brief.Title != "" || brief.Topic != "", "topic", "a title or a topic is required")
	v.Check(ai.ValidLength(brief.Length), "length", "length must be short, medium or long")
	checkLength(v, "title", brief.Title, 0, 200)
	checkLength(v, "topic", brief.Topic, 0, 500)
	if err := v.Err(); err != nil {
		return nil, err
	}

	draft, err := ai.GenerateBlog(ctx, s.completer, brief)
	if err != nil {
		s.logAIError("blog generation failed", err)
		return nil, err
	}
	if draft.ReadingTime <= 0 {
		draft.ReadingTime = ReadingTime(draft.Content)
	}

	s.logger.Info("blog draft generated", slog.String("title", draft.Title))
	return draft, nil
}

func (s *AIService) Chat(ctx context.Context, in ChatInput) (string, error) {
	v := apperror.NewValidator()
	n := len(in.Messages)
	v.Check(n > 0, "messages", "at least one message is required")
	v.Check(n <= maxChatMessages, "messages", fmt.Sprintf("at most %d messages are allowed", maxChatMessages))
	for i, m := range in.Messages {
		switch m.Role {
		case ai.RoleUser, ai.RoleAssistant, ai.RoleSystem:
		default:
			v.Add("messages", fmt.Sprintf("message %d has unknown role %q", i, m.Role))
		}
		checkLength(v, "messages", m.Content, 1, maxChatMessageRunes)
	}
	if n > 0 {
		v.Check(in.Messages[n-1].Role == ai.RoleUser, "messages", "the last message must come from the user")
	}
	if err := v.Err(); err != nil {
		return "", err
	}

	reply, err := ai.Chat(ctx, s.completer, in.Messages)
	if err != nil {
		s.logAIError("chat failed", err)
		return "", err
	}
	return reply, nil
}

// Recommend ranks site content for the visitor. Suggestions that are not in
// the catalog, repeat an item, or point at the current item are dropped.
func (s *AIService) Recommend(ctx context.Context, in RecommendInput) ([]Recommendation, error) {
	interests := cleanList(in.Interests)
	limit := in.Limit
	if limit == 0 {
		limit = defaultRecommend
	}

	v := apperror.NewValidator()
	v.Check(limit >= 1 && limit <= maxRecommend, "limit", fmt.Sprintf("limit must be between 1 and %d", maxRecommend))
	v.Check(len(interests) > 0 || in.CurrentContent != nil, "interests", "interests or currentContent is required")
	if in.CurrentContent != nil {
		v.Check(in.CurrentContent.Type != "" && in.CurrentContent.ID != "", "currentContent", "currentContent needs a type and an id")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]ai.CatalogItem, len(catalog))
	for _, item := range catalog {
		byKey[item.Type+"/"+item.ID] = item
	}

	var current *ai.CatalogItem
	if in.CurrentContent != nil {
		item, ok := byKey[in.CurrentContent.Type+"/"+in.CurrentContent.ID]
		if !ok {
			item = ai.CatalogItem{Type: in.CurrentContent.Type, ID: in.CurrentContent.ID}
		}
		current = &item
	}

	suggestions, err := ai.Suggest(ctx, s.completer, interests, current, catalog, limit)
	if err != nil {
		s.logAIError("recommendation failed", err)
		return nil, err
	}

	out := make([]Recommendation, 0, len(suggestions))
	seen := make(map[string]bool)
	for _, sg := range suggestions {
		key := sg.Type + "/" + sg.ID
		item, ok := byKey[key]
		if !ok || seen[key] || (current != nil && key == current.Type+"/"+current.ID) {
			continue
		}
		seen[key] = true
		out = append(out, Recommendation{
			Type:   item.Type,
			ID:     item.ID,
			Title:  item.Title,
			Score:  min(max(sg.Score, 0), 1),
			Reason: strings.TrimSpace(sg.Reason),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}

	if dropped := len(suggestions) - len(out); dropped > 0 {
		s.logger.Debug("recommendations dropped", slog.Int("count", dropped))
	}
	return out, nil
}

// catalog loads posts, projects and skills concurrently.
func (s *AIService) catalog(ctx context.Context) ([]ai.CatalogItem, error) {
	var posts, projects, skills []ai.CatalogItem
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		list, err := s.posts.ListPosts(ctx)
		for _, p := range list {
			posts = append(posts, ai.CatalogItem{Type: ContentBlog, ID: p.ID, Title: p.Title, Description: p.Summary, Tags: p.Tags})
		}
		return err
	})
	g.Go(func() error {
		list, err := s.projects.ListProjects(ctx)
		for _, p := range list {
			projects = append(projects, ai.CatalogItem{Type: ContentProject, ID: p.ID, Title: p.Title, Description: p.Description, Tags: p.Tags})
		}
		return err
	})
	g.Go(func() error {
		list, err := s.skills.ListSkills(ctx)
		for _, sk := range list {
			skills = append(skills, ai.CatalogItem{Type: ContentSkill, ID: sk.ID, Title: sk.Name, Description: sk.Category})
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service/ai: loading catalog: %w", err)
	}
	return append(append(posts, projects...), skills...), nil
}

func (s *AIService) logAIError(msg string, err error) {
	s.logger.Error(msg, slog.String("error", err.Error()))
}
