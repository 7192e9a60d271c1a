package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
)

// Blog lengths and their approximate word targets.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

var lengthWords = map[string]int{
	LengthShort:  500,
	LengthMedium: 1000,
	LengthLong:   1800,
}

// ValidLength reports whether l is a known length.
func ValidLength(l string) bool {
	_, ok := lengthWords[l]
	return ok
}

// BlogBrief describes the post to draft. At least one of Title and Topic
// is set by the caller.
type BlogBrief struct {
	Title    string
	Topic    string
	Keywords []string
	Length   string
}

// BlogDraft is the model's draft. It is returned to the admin for editing
// and never stored by this package.
type BlogDraft struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	ImagePrompt string   `json:"imagePrompt"`
	Tags        []string `json:"tags"`
	ReadingTime int      `json:"readingTime"`
}

const blogSystemPrompt = `You are a technical writer drafting posts for a software developer's portfolio blog.
Respond with a single JSON object with the keys "title", "content", "summary", "imagePrompt" and "tags".
"content" is the article as HTML using <h2>, <p>, <ul>, <li>, <pre> and <code> only.
"summary" is one or two plain sentences. "imagePrompt" describes a header illustration.
"tags" is an array of three to six short lowercase tags.`

// GenerateBlog asks the model for a draft matching brief.
func GenerateBlog(ctx context.Context, c Completer, brief BlogBrief) (*BlogDraft, error) {
	words, ok := lengthWords[brief.Length]
	if !ok {
		words = lengthWords[LengthMedium]
	}

	var b strings.Builder
	if brief.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", brief.Title)
	}
	if brief.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", brief.Topic)
	}
	if len(brief.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords to cover: %s\n", strings.Join(brief.Keywords, ", "))
	}
	fmt.Fprintf(&b, "Target length: about %d words.", words)

	content, err := c.Complete(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: blogSystemPrompt},
			{Role: RoleUser, Content: b.String()},
		},
		JSON:        true,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	var draft BlogDraft
	if err := decodeJSON(content, &draft); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.Content) == "" {
		return nil, apperror.Upstream("AI returned an empty draft", fmt.Errorf("ai: draft has no content"))
	}
	if draft.Title == "" {
		draft.Title = brief.Title
	}
	if draft.Tags == nil {
		draft.Tags = []string{}
	}
	return &draft, nil
}

// CatalogItem is one piece of site content the model may recommend.
type CatalogItem struct {
	Type        string   `json:"type"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Suggestion is a raw model suggestion. Callers must check it against the
// catalog: the model can and does invent ids.
type Suggestion struct {
	Type   string  `json:"type"`
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

const recommendSystemPrompt = `You recommend content from a developer portfolio to a visitor.
Only recommend items from the provided catalog, identified by their exact "type" and "id".
Respond with a JSON object {"recommendations": [{"type", "id", "score", "reason"}]}
where score is a relevance between 0 and 1 and reason is one short sentence.`

// Suggest asks the model to rank catalog items for the given interests.
// current, when non-nil, is the item the visitor is looking at and should
// not be suggested back.
func Suggest(ctx context.Context, c Completer, interests []string, current *CatalogItem, catalog []CatalogItem, limit int) ([]Suggestion, error) {
	catalogJSON, err := json.Marshal(catalog)
	if err != nil {
		return nil, fmt.Errorf("ai: encoding catalog: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Visitor interests: %s\n", strings.Join(interests, ", "))
	if current != nil {
		fmt.Fprintf(&b, "Currently viewing: %s %s (%s). Do not recommend it.\n", current.Type, current.ID, current.Title)
	}
	fmt.Fprintf(&b, "Return at most %d recommendations.\nCatalog:\n%s", limit, catalogJSON)

	content, err := c.Complete(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: recommendSystemPrompt},
			{Role: RoleUser, Content: b.String()},
		},
		JSON:        true,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Recommendations []Suggestion `json:"recommendations"`
	}
	if err := decodeJSON(content, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

const chatSystemPrompt = `You are the assistant on a software developer's portfolio website.
Answer questions about the developer's skills, projects, experience and blog, and general programming questions.
Keep answers short and friendly. If you do not know something about the developer, say so instead of guessing.`

// Chat returns the assistant's next reply. The site's system instruction is
// prepended unless the conversation already opens with a system message.
func Chat(ctx context.Context, c Completer, messages []Message) (string, error) {
	convo := messages
	if len(messages) == 0 || messages[0].Role != RoleSystem {
		convo = make([]Message, 0, len(messages)+1)
		convo = append(convo, Message{Role: RoleSystem, Content: chatSystemPrompt})
		convo = append(convo, messages...)
	}

	reply, err := c.Complete(ctx, Request{
		Messages:    convo,
		Temperature: 0.7,
		MaxTokens:   600,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
