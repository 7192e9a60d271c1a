// Package repository declares the storage contracts the services depend on.
//
// Services receive these interfaces, never the concrete sqlite.DB, so tests
// can substitute in-memory fakes. Every "row absent" condition is reported
// as an apperror.ErrNotFound so the HTTP layer maps it to 404 uniformly.
package repository

import (
	"context"
	"time"

	"github.com/sakif/portfolio/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// ProfileRepository stores the singleton profile. SaveProfile updates the
// first row when one exists and inserts otherwise; created reports which.
type ProfileRepository interface {
	GetProfile(ctx context.Context) (*model.Profile, error)
	SaveProfile(ctx context.Context, profile *model.Profile) (created bool, err error)
}

type ResumeRepository interface {
	GetResume(ctx context.Context) (*model.Resume, error)
	SaveResume(ctx context.Context, resume *model.Resume) (created bool, err error)
	DeleteResume(ctx context.Context, id string) error
}

type SkillRepository interface {
	ListSkills(ctx context.Context) ([]model.Skill, error)
	GetSkill(ctx context.Context, id string) (*model.Skill, error)
	CreateSkill(ctx context.Context, skill *model.Skill) error
	UpdateSkill(ctx context.Context, skill *model.Skill) error
	DeleteSkill(ctx context.Context, id string) error
}

type ProjectRepository interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	CreateProject(ctx context.Context, project *model.Project) error
	UpdateProject(ctx context.Context, project *model.Project) error
	DeleteProject(ctx context.Context, id string) error
}

type ExperienceRepository interface {
	ListExperiences(ctx context.Context) ([]model.Experience, error)
	GetExperience(ctx context.Context, id string) (*model.Experience, error)
	CreateExperience(ctx context.Context, exp *model.Experience) error
	UpdateExperience(ctx context.Context, exp *model.Experience) error
	DeleteExperience(ctx context.Context, id string) error
}

type SocialRepository interface {
	ListSocials(ctx context.Context) ([]model.Social, error)
	GetSocial(ctx context.Context, id string) (*model.Social, error)
	CreateSocial(ctx context.Context, social *model.Social) error
	UpdateSocial(ctx context.Context, social *model.Social) error
	DeleteSocial(ctx context.Context, id string) error
}

type ContactRepository interface {
	CreateContact(ctx context.Context, contact *model.Contact) error
	ListContacts(ctx context.Context) ([]model.Contact, error)
	DeleteContact(ctx context.Context, id string) error
}

type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, fb *model.Feedback) error
	ListFeedback(ctx context.Context) ([]model.Feedback, error)
	AverageRating(ctx context.Context) (float64, error)
}

// BlogRepository stores posts and their comments. CreatePost and UpdatePost
// return an apperror.ErrConflict when the slug is already taken.
type BlogRepository interface {
	ListPosts(ctx context.Context) ([]model.BlogPost, error)
	GetPost(ctx context.Context, id string) (*model.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
	CreatePost(ctx context.Context, post *model.BlogPost) error
	UpdatePost(ctx context.Context, post *model.BlogPost) error
	DeletePost(ctx context.Context, id string) error

	ListComments(ctx context.Context, postID string) ([]model.BlogComment, error)
	CreateComment(ctx context.Context, comment *model.BlogComment) error
	DeleteComment(ctx context.Context, id string) error
}

// VisitorRepository counts visits. TrackVisit records one visit for the
// token and increments the counters in a single transaction.
type VisitorRepository interface {
	TrackVisit(ctx context.Context, visitorID string, now time.Time) (*model.VisitResult, error)
	VisitorStats(ctx context.Context) (*model.VisitorStats, error)
}

// EngagementRepository is the reading ledger. AwardEngagement inserts the
// row only if (visitor, post, action) is new and reports whether it did.
type EngagementRepository interface {
	AwardEngagement(ctx context.Context, e *model.Engagement) (bool, error)
	VisitorEngagements(ctx context.Context, visitorID string) ([]model.Engagement, error)
	PostEngagementCounts(ctx context.Context, postID string) (map[model.Action]int, error)
}

// Table names a countable entity for the admin dashboard.
type Table string

const (
	TableProjects     Table = "projects"
	TableSkills       Table = "skills"
	TableExperiences  Table = "experiences"
	TableSocials      Table = "socials"
	TableBlogPosts    Table = "blog_posts"
	TableBlogComments Table = "blog_comments"
	TableContacts     Table = "contacts"
	TableFeedback     Table = "feedback"
)

type CountRepository interface {
	Count(ctx context.Context, table Table) (int64, error)
}
