package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

// newTestDB opens a fresh in-memory database with every migration applied.
// t.Cleanup closes it, which also throws the data away.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestPost(t *testing.T, db *DB, title, slug string) *model.BlogPost {
	t.Helper()
	post := &model.BlogPost{
		Title:   title,
		Slug:    slug,
		Content: "<p>body</p>",
		Summary: "summary",
		Tags:    model.StringList{"go"},
	}
	if err := db.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// =========================================================================
// SETUP TESTS
// =========================================================================

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	// A second Up against the same connection must find nothing to do.
	if err := db.migrate(context.Background()); err != nil {
		t.Fatalf("migrate() second run error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestWithPragmas(t *testing.T) {
	tests := []struct {
		name   string
		dsn    string
		memory bool
		want   string
	}{
		{
			name:   "memory skips WAL",
			dsn:    ":memory:",
			memory: true,
			want:   ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "file gets WAL",
			dsn:  "data/portfolio.db",
			want: "data/portfolio.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		},
		{
			name: "existing query string is extended",
			dsn:  "file:portfolio.db?cache=shared",
			want: "file:portfolio.db?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := withPragmas(tt.dsn, tt.memory); got != tt.want {
				t.Errorf("withPragmas() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =========================================================================
// USER & SESSION TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := &model.User{Username: "admin", PasswordHash: "hash"}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}

	got, err := db.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if got.ID != user.ID || got.PasswordHash != "hash" {
		t.Errorf("GetUserByUsername() = %+v, want id %s with stored hash", got, user.ID)
	}

	byID, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Username != "admin" {
		t.Errorf("GetUserByID().Username = %q, want admin", byID.Username)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, &model.User{Username: "admin", PasswordHash: "a"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	err := db.CreateUser(ctx, &model.User{Username: "admin", PasswordHash: "b"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() duplicate error = %v, want ErrConflict", err)
	}
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByUsername(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByUsername() error = %v, want ErrNotFound", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := &model.User{Username: "admin", PasswordHash: "hash"}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	s := &model.Session{ID: "session-1", UserID: user.ID, ExpiresAt: expires}
	if err := db.CreateSession(ctx, s); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := db.GetSession(ctx, "session-1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != user.ID {
		t.Errorf("GetSession().UserID = %q, want %q", got.UserID, user.ID)
	}
	if !got.ExpiresAt.Equal(expires) {
		t.Errorf("GetSession().ExpiresAt = %v, want %v", got.ExpiresAt, expires)
	}

	if err := db.DeleteSession(ctx, "session-1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := db.GetSession(ctx, "session-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrNotFound", err)
	}
	// Logout twice is fine.
	if err := db.DeleteSession(ctx, "session-1"); err != nil {
		t.Errorf("DeleteSession() second call error = %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := &model.User{Username: "admin", PasswordHash: "hash"}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	now := time.Now()
	for id, exp := range map[string]time.Time{
		"old":   now.Add(-time.Hour),
		"edge":  now,
		"fresh": now.Add(time.Hour),
	} {
		if err := db.CreateSession(ctx, &model.Session{ID: id, UserID: user.ID, ExpiresAt: exp}); err != nil {
			t.Fatalf("CreateSession(%s) error = %v", id, err)
		}
	}

	n, err := db.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteExpiredSessions() = %d, want 2", n)
	}
	if _, err := db.GetSession(ctx, "fresh"); err != nil {
		t.Errorf("fresh session was purged: %v", err)
	}
}

// =========================================================================
// SINGLETON TESTS
// =========================================================================

func TestSaveProfile_Upserts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.GetProfile(ctx); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetProfile() on empty db error = %v, want ErrNotFound", err)
	}

	first := &model.Profile{FullName: "Ada Lovelace", Title: "Engineer"}
	created, err := db.SaveProfile(ctx, first)
	if err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	if !created {
		t.Error("SaveProfile() first call created = false, want true")
	}

	second := &model.Profile{FullName: "Ada King", Title: "Countess"}
	created, err = db.SaveProfile(ctx, second)
	if err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	if created {
		t.Error("SaveProfile() second call created = true, want false")
	}
	if second.ID != first.ID {
		t.Errorf("SaveProfile() changed id from %s to %s", first.ID, second.ID)
	}

	got, err := db.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.FullName != "Ada King" || got.Title != "Countess" {
		t.Errorf("GetProfile() = %+v, want the second save", got)
	}
}

func TestResumeLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	r := &model.Resume{Filename: "cv.pdf", URL: "/uploads/resume/cv.pdf"}
	created, err := db.SaveResume(ctx, r)
	if err != nil || !created {
		t.Fatalf("SaveResume() = (%v, %v), want (true, nil)", created, err)
	}

	got, err := db.GetResume(ctx)
	if err != nil {
		t.Fatalf("GetResume() error = %v", err)
	}
	if got.Filename != "cv.pdf" {
		t.Errorf("GetResume().Filename = %q, want cv.pdf", got.Filename)
	}

	if err := db.DeleteResume(ctx, r.ID); err != nil {
		t.Fatalf("DeleteResume() error = %v", err)
	}
	if err := db.DeleteResume(ctx, r.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteResume() twice error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// COLLECTION TESTS
// =========================================================================

func TestSkills_CRUDAndOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, s := range []model.Skill{
		{Name: "React", Category: "Frontend", Level: 80},
		{Name: "Go", Category: "Backend", Level: 90},
		{Name: "Angular", Category: "Frontend", Level: 40},
	} {
		s := s
		if err := db.CreateSkill(ctx, &s); err != nil {
			t.Fatalf("CreateSkill() error = %v", err)
		}
	}

	skills, err := db.ListSkills(ctx)
	if err != nil {
		t.Fatalf("ListSkills() error = %v", err)
	}
	want := []string{"Go", "Angular", "React"}
	if len(skills) != len(want) {
		t.Fatalf("ListSkills() returned %d skills, want %d", len(skills), len(want))
	}
	for i, name := range want {
		if skills[i].Name != name {
			t.Errorf("ListSkills()[%d] = %s, want %s", i, skills[i].Name, name)
		}
	}

	s := skills[0]
	s.Level = 95
	if err := db.UpdateSkill(ctx, &s); err != nil {
		t.Fatalf("UpdateSkill() error = %v", err)
	}
	got, err := db.GetSkill(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSkill() error = %v", err)
	}
	if got.Level != 95 {
		t.Errorf("GetSkill().Level = %d, want 95", got.Level)
	}

	if err := db.DeleteSkill(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSkill() error = %v", err)
	}
	if _, err := db.GetSkill(ctx, s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSkill() after delete error = %v, want ErrNotFound", err)
	}
}

func TestUpdateSkill_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateSkill(context.Background(), &model.Skill{ID: "missing", Name: "x", Category: "y"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateSkill() error = %v, want ErrNotFound", err)
	}
}

func TestProjects_TagsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &model.Project{
		Title: "Portfolio", Description: "this site", Category: "Web",
		Image: "/uploads/projects/p.png", Tags: model.StringList{"go", "react"},
	}
	if err := db.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	noTags := &model.Project{Title: "Bare", Description: "d", Category: "c", Image: "i"}
	if err := db.CreateProject(ctx, noTags); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	got, err := db.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "react" {
		t.Errorf("GetProject().Tags = %v, want [go react]", got.Tags)
	}

	bare, err := db.GetProject(ctx, noTags.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if bare.Tags == nil || len(bare.Tags) != 0 {
		t.Errorf("GetProject().Tags = %#v, want empty non-nil list", bare.Tags)
	}

	list, err := db.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != noTags.ID {
		t.Errorf("ListProjects() should return newest first, got %v", list)
	}
}

func TestExperiences_EndDateNullable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	end := "2022-06"
	past := &model.Experience{
		Company: "Acme", JobTitle: "Dev", Description: "d",
		StartDate: "2020-01", EndDate: &end,
	}
	current := &model.Experience{
		Company: "Initech", JobTitle: "Lead", Description: "d",
		StartDate: "2022-07",
	}
	for _, e := range []*model.Experience{past, current} {
		if err := db.CreateExperience(ctx, e); err != nil {
			t.Fatalf("CreateExperience() error = %v", err)
		}
	}

	list, err := db.ListExperiences(ctx)
	if err != nil {
		t.Fatalf("ListExperiences() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListExperiences() returned %d, want 2", len(list))
	}
	if list[0].Company != "Initech" || !list[0].Current() {
		t.Errorf("ListExperiences()[0] = %+v, want current Initech position first", list[0])
	}
	if list[1].EndDate == nil || *list[1].EndDate != "2022-06" {
		t.Errorf("ListExperiences()[1].EndDate = %v, want 2022-06", list[1].EndDate)
	}
}

func TestSocials_OrderedByName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"LinkedIn", "GitHub"} {
		s := &model.Social{Name: name, URL: "https://example.com", Icon: "<svg/>"}
		if err := db.CreateSocial(ctx, s); err != nil {
			t.Fatalf("CreateSocial() error = %v", err)
		}
	}

	list, err := db.ListSocials(ctx)
	if err != nil {
		t.Fatalf("ListSocials() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "GitHub" {
		t.Errorf("ListSocials() = %v, want GitHub first", list)
	}
}

// =========================================================================
// BLOG TESTS
// =========================================================================

func TestCreatePost_DuplicateSlugIsConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	original := createTestPost(t, db, "Hello", "hello-world")

	dup := &model.BlogPost{Title: "Other", Slug: "hello-world", Content: "x", Summary: "y"}
	err := db.CreatePost(ctx, dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreatePost() duplicate error = %v, want ErrConflict", err)
	}

	got, err := db.GetPostBySlug(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetPostBySlug() error = %v", err)
	}
	if got.ID != original.ID || got.Title != "Hello" {
		t.Errorf("duplicate insert overwrote the original: %+v", got)
	}
}

func TestUpdatePost_SlugCollision(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestPost(t, db, "First", "first")
	second := createTestPost(t, db, "Second", "second")

	second.Slug = "first"
	if err := db.UpdatePost(ctx, second); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdatePost() error = %v, want ErrConflict", err)
	}
}

func TestUpdatePost_PersistsEveryField(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	older := createTestPost(t, db, "Older", "older")
	post := createTestPost(t, db, "Draft", "draft")

	published := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	post.Title = "Final"
	post.Slug = "final"
	post.Content = "<p>new body</p>"
	post.Summary = "new summary"
	post.FeaturedImage = "/uploads/projects/cover.png"
	post.Tags = model.StringList{"sql", "go"}
	post.ReadingTime = 7
	post.IsAIGenerated = true
	post.PublishedAt = published
	if err := db.UpdatePost(ctx, post); err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}

	got, err := db.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if got.Title != "Final" || got.Slug != "final" || got.Content != "<p>new body</p>" ||
		got.Summary != "new summary" || got.FeaturedImage != "/uploads/projects/cover.png" {
		t.Errorf("GetPost() text fields = %+v, want the updated values", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "sql" || got.Tags[1] != "go" {
		t.Errorf("GetPost().Tags = %v, want [sql go]", got.Tags)
	}
	if got.ReadingTime != 7 || !got.IsAIGenerated {
		t.Errorf("GetPost() readingTime=%d isAIGenerated=%v, want 7 true", got.ReadingTime, got.IsAIGenerated)
	}
	if !got.PublishedAt.Equal(published) {
		t.Errorf("GetPost().PublishedAt = %v, want %v", got.PublishedAt, published)
	}

	// Backdating moves the post behind one created earlier.
	list, err := db.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListPosts() returned %d posts, want 2", len(list))
	}
	if list[0].ID != older.ID || list[1].ID != post.ID {
		t.Errorf("ListPosts() order = %v, want older post first", []string{list[0].ID, list[1].ID})
	}
}

func TestGetPostBySlug_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetPostBySlug(context.Background(), "does-not-exist")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPostBySlug() error = %v, want ErrNotFound", err)
	}
}

func TestPostFlagsAndTagsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &model.BlogPost{
		Title: "AI", Slug: "ai", Content: "c", Summary: "s",
		Tags: model.StringList{"ai", "llm"}, ReadingTime: 4,
		IsAIGenerated: true, PublishedAt: published,
	}
	if err := db.CreatePost(ctx, p); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	got, err := db.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if !got.IsAIGenerated || got.ReadingTime != 4 || len(got.Tags) != 2 {
		t.Errorf("GetPost() = %+v, want flags and tags preserved", got)
	}
	if !got.PublishedAt.Equal(published) {
		t.Errorf("GetPost().PublishedAt = %v, want %v", got.PublishedAt, published)
	}
}

func TestDeletePost_CascadesToCommentsAndEngagement(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	post := createTestPost(t, db, "Hello", "hello")
	c := &model.BlogComment{PostID: post.ID, Name: "Bob", Email: "bob@example.com", Comment: "nice"}
	if err := db.CreateComment(ctx, c); err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}
	if _, err := db.AwardEngagement(ctx, &model.Engagement{
		VisitorID: "v1", PostID: post.ID, Action: model.ActionLike, Points: 5,
	}); err != nil {
		t.Fatalf("AwardEngagement() error = %v", err)
	}

	if err := db.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}

	n, err := db.Count(ctx, repository.TableBlogComments)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("comments left after post delete = %d, want 0", n)
	}
	engaged, err := db.VisitorEngagements(ctx, "v1")
	if err != nil {
		t.Fatalf("VisitorEngagements() error = %v", err)
	}
	if len(engaged) != 0 {
		t.Errorf("engagements left after post delete = %d, want 0", len(engaged))
	}
}

func TestComments_OldestFirstAndMissingPost(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	post := createTestPost(t, db, "Hello", "hello")
	for _, name := range []string{"first", "second"} {
		c := &model.BlogComment{PostID: post.ID, Name: name, Email: "a@b.c", Comment: "hi"}
		if err := db.CreateComment(ctx, c); err != nil {
			t.Fatalf("CreateComment() error = %v", err)
		}
	}

	list, err := db.ListComments(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "first" {
		t.Errorf("ListComments() = %v, want oldest first", list)
	}

	orphan := &model.BlogComment{PostID: "missing", Name: "x", Email: "a@b.c", Comment: "hi"}
	if err := db.CreateComment(ctx, orphan); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CreateComment() on missing post error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// MESSAGE TESTS
// =========================================================================

func TestContacts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c := &model.Contact{Name: "Ann", Email: "ann@example.com", Subject: "Hi", Message: "Hello"}
	if err := db.CreateContact(ctx, c); err != nil {
		t.Fatalf("CreateContact() error = %v", err)
	}
	list, err := db.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if len(list) != 1 || list[0].Email != "ann@example.com" {
		t.Errorf("ListContacts() = %v", list)
	}
	if err := db.DeleteContact(ctx, c.ID); err != nil {
		t.Fatalf("DeleteContact() error = %v", err)
	}
	if err := db.DeleteContact(ctx, c.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteContact() twice error = %v, want ErrNotFound", err)
	}
}

func TestFeedbackAverage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	avg, err := db.AverageRating(ctx)
	if err != nil {
		t.Fatalf("AverageRating() error = %v", err)
	}
	if avg != 0 {
		t.Errorf("AverageRating() on empty table = %v, want 0", avg)
	}

	for _, r := range []int{5, 4} {
		if err := db.CreateFeedback(ctx, &model.Feedback{Rating: r}); err != nil {
			t.Fatalf("CreateFeedback() error = %v", err)
		}
	}
	avg, err = db.AverageRating(ctx)
	if err != nil {
		t.Fatalf("AverageRating() error = %v", err)
	}
	if avg != 4.5 {
		t.Errorf("AverageRating() = %v, want 4.5", avg)
	}
}

func TestCount_RejectsUnknownTable(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.Count(context.Background(), repository.Table("users; DROP TABLE users")); err == nil {
		t.Error("Count() accepted a table outside the whitelist")
	}
}

// =========================================================================
// VISITOR & ENGAGEMENT TESTS
// =========================================================================

func TestTrackVisit_SameTokenCountsOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	first, err := db.TrackVisit(ctx, "token-a", now)
	if err != nil {
		t.Fatalf("TrackVisit() error = %v", err)
	}
	if !first.IsNewVisitor || first.TotalVisitors != 1 || first.UniqueVisitors != 1 {
		t.Errorf("first visit = %+v, want new visitor 1/1", first)
	}

	second, err := db.TrackVisit(ctx, "token-a", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("TrackVisit() error = %v", err)
	}
	if second.IsNewVisitor || second.TotalVisitors != 2 || second.UniqueVisitors != 1 {
		t.Errorf("repeat visit = %+v, want returning visitor 2/1", second)
	}

	stats, err := db.VisitorStats(ctx)
	if err != nil {
		t.Fatalf("VisitorStats() error = %v", err)
	}
	if stats.TotalVisitors != 2 || stats.UniqueVisitors != 1 {
		t.Errorf("VisitorStats() = %+v, want 2/1", stats)
	}
}

func TestTrackVisit_ConcurrentVisitsAreNotLost(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	const visits = 20
	var wg sync.WaitGroup
	errs := make(chan error, visits)
	for i := 0; i < visits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := "shared"
			if i%2 == 0 {
				token = "token-" + string(rune('a'+i))
			}
			if _, err := db.TrackVisit(ctx, token, time.Now()); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("TrackVisit() error = %v", err)
	}

	stats, err := db.VisitorStats(ctx)
	if err != nil {
		t.Fatalf("VisitorStats() error = %v", err)
	}
	if stats.TotalVisitors != visits {
		t.Errorf("TotalVisitors = %d, want %d", stats.TotalVisitors, visits)
	}
	// 10 distinct even-index tokens plus the one shared token.
	if stats.UniqueVisitors != 11 {
		t.Errorf("UniqueVisitors = %d, want 11", stats.UniqueVisitors)
	}
}

func TestAwardEngagement_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	post := createTestPost(t, db, "Hello", "hello")

	e := &model.Engagement{VisitorID: "v1", PostID: post.ID, Action: model.ActionLike, Points: 5}
	awarded, err := db.AwardEngagement(ctx, e)
	if err != nil || !awarded {
		t.Fatalf("AwardEngagement() = (%v, %v), want (true, nil)", awarded, err)
	}
	again := &model.Engagement{VisitorID: "v1", PostID: post.ID, Action: model.ActionLike, Points: 5}
	awarded, err = db.AwardEngagement(ctx, again)
	if err != nil || awarded {
		t.Fatalf("AwardEngagement() repeat = (%v, %v), want (false, nil)", awarded, err)
	}
	other := &model.Engagement{VisitorID: "v2", PostID: post.ID, Action: model.ActionLike, Points: 5}
	if _, err := db.AwardEngagement(ctx, other); err != nil {
		t.Fatalf("AwardEngagement() error = %v", err)
	}

	counts, err := db.PostEngagementCounts(ctx, post.ID)
	if err != nil {
		t.Fatalf("PostEngagementCounts() error = %v", err)
	}
	if counts[model.ActionLike] != 2 {
		t.Errorf("like count = %d, want 2", counts[model.ActionLike])
	}

	mine, err := db.VisitorEngagements(ctx, "v1")
	if err != nil {
		t.Fatalf("VisitorEngagements() error = %v", err)
	}
	if len(mine) != 1 || mine[0].Action != model.ActionLike {
		t.Errorf("VisitorEngagements() = %v, want a single like", mine)
	}
}

func TestAwardEngagement_UnknownPost(t *testing.T) {
	db := newTestDB(t)

	_, err := db.AwardEngagement(context.Background(), &model.Engagement{
		VisitorID: "v1", PostID: "missing", Action: model.ActionView, Points: 1,
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AwardEngagement() error = %v, want ErrNotFound", err)
	}
}
