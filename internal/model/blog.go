package model

import "time"

// BlogPost is an article. Slug is unique across all posts and is what public
// URLs use; Content is HTML.
type BlogPost struct {
	ID            string     `json:"id"            yaml:"-"`
	Title         string     `json:"title"         yaml:"title"`
	Slug          string     `json:"slug"          yaml:"slug"`
	Content       string     `json:"content"       yaml:"content"`
	Summary       string     `json:"summary"       yaml:"summary"`
	FeaturedImage string     `json:"featuredImage,omitempty" yaml:"featuredImage"`
	Tags          StringList `json:"tags"          yaml:"tags"`
	ReadingTime   int        `json:"readingTime"   yaml:"readingTime"`
	IsAIGenerated bool       `json:"isAiGenerated" yaml:"isAiGenerated"`
	PublishedAt   time.Time  `json:"publishedAt"   yaml:"publishedAt"`
	UpdatedAt     time.Time  `json:"updatedAt"     yaml:"-"`
}

// BlogComment belongs to a BlogPost and is deleted with it.
type BlogComment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}
