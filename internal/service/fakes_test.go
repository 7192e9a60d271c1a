package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// The fakes keep rows in maps and copy on the way in and out, so a test
// that mutates a returned value cannot change what is "stored".

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type idGen struct{ n int }

func (g *idGen) next(prefix string) string {
	g.n++
	return fmt.Sprintf("%s-%d", prefix, g.n)
}

// ---- users & sessions ---------------------------------------------------

type fakeUserRepo struct {
	ids   idGen
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperror.Conflictf("username %q is already taken", u.Username)
		}
	}
	u.ID = f.ids.next("user")
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NotFoundf("user not found with username %s", username)
}

type fakeSessionRepo struct {
	sessions map[string]model.Session
	purged   int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]model.Session)}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, s *model.Session) error {
	f.sessions[s.ID] = *s
	return nil
}

func (f *fakeSessionRepo) GetSession(_ context.Context, id string) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperror.NotFound("session", id)
	}
	return &s, nil
}

func (f *fakeSessionRepo) DeleteSession(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, id)
			n++
		}
	}
	f.purged++
	return n, nil
}

// ---- portfolio collections ------------------------------------------------

type fakeSkillRepo struct {
	ids    idGen
	skills map[string]model.Skill
	lists  int // ListSkills calls, to observe caching
}

func newFakeSkillRepo() *fakeSkillRepo {
	return &fakeSkillRepo{skills: make(map[string]model.Skill)}
}

func (f *fakeSkillRepo) ListSkills(context.Context) ([]model.Skill, error) {
	f.lists++
	out := make([]model.Skill, 0, len(f.skills))
	for _, s := range f.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *fakeSkillRepo) GetSkill(_ context.Context, id string) (*model.Skill, error) {
	s, ok := f.skills[id]
	if !ok {
		return nil, apperror.NotFound("skill", id)
	}
	return &s, nil
}

func (f *fakeSkillRepo) CreateSkill(_ context.Context, s *model.Skill) error {
	s.ID = f.ids.next("skill")
	f.skills[s.ID] = *s
	return nil
}

func (f *fakeSkillRepo) UpdateSkill(_ context.Context, s *model.Skill) error {
	if _, ok := f.skills[s.ID]; !ok {
		return apperror.NotFound("skill", s.ID)
	}
	f.skills[s.ID] = *s
	return nil
}

func (f *fakeSkillRepo) DeleteSkill(_ context.Context, id string) error {
	if _, ok := f.skills[id]; !ok {
		return apperror.NotFound("skill", id)
	}
	delete(f.skills, id)
	return nil
}

type fakeProjectRepo struct {
	ids      idGen
	projects map[string]model.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]model.Project)}
}

func (f *fakeProjectRepo) ListProjects(context.Context) ([]model.Project, error) {
	out := make([]model.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeProjectRepo) GetProject(_ context.Context, id string) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", id)
	}
	return &p, nil
}

func (f *fakeProjectRepo) CreateProject(_ context.Context, p *model.Project) error {
	p.ID = f.ids.next("project")
	f.projects[p.ID] = *p
	return nil
}

func (f *fakeProjectRepo) UpdateProject(_ context.Context, p *model.Project) error {
	if _, ok := f.projects[p.ID]; !ok {
		return apperror.NotFound("project", p.ID)
	}
	f.projects[p.ID] = *p
	return nil
}

func (f *fakeProjectRepo) DeleteProject(_ context.Context, id string) error {
	if _, ok := f.projects[id]; !ok {
		return apperror.NotFound("project", id)
	}
	delete(f.projects, id)
	return nil
}

type fakeExperienceRepo struct {
	ids  idGen
	exps map[string]model.Experience
}

func newFakeExperienceRepo() *fakeExperienceRepo {
	return &fakeExperienceRepo{exps: make(map[string]model.Experience)}
}

func (f *fakeExperienceRepo) ListExperiences(context.Context) ([]model.Experience, error) {
	out := make([]model.Experience, 0, len(f.exps))
	for _, e := range f.exps {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeExperienceRepo) GetExperience(_ context.Context, id string) (*model.Experience, error) {
	e, ok := f.exps[id]
	if !ok {
		return nil, apperror.NotFound("experience", id)
	}
	return &e, nil
}

func (f *fakeExperienceRepo) CreateExperience(_ context.Context, e *model.Experience) error {
	e.ID = f.ids.next("exp")
	f.exps[e.ID] = *e
	return nil
}

func (f *fakeExperienceRepo) UpdateExperience(_ context.Context, e *model.Experience) error {
	if _, ok := f.exps[e.ID]; !ok {
		return apperror.NotFound("experience", e.ID)
	}
	f.exps[e.ID] = *e
	return nil
}

func (f *fakeExperienceRepo) DeleteExperience(_ context.Context, id string) error {
	if _, ok := f.exps[id]; !ok {
		return apperror.NotFound("experience", id)
	}
	delete(f.exps, id)
	return nil
}

type fakeSocialRepo struct {
	ids     idGen
	socials map[string]model.Social
}

func newFakeSocialRepo() *fakeSocialRepo {
	return &fakeSocialRepo{socials: make(map[string]model.Social)}
}

func (f *fakeSocialRepo) ListSocials(context.Context) ([]model.Social, error) {
	out := make([]model.Social, 0, len(f.socials))
	for _, s := range f.socials {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSocialRepo) GetSocial(_ context.Context, id string) (*model.Social, error) {
	s, ok := f.socials[id]
	if !ok {
		return nil, apperror.NotFound("social", id)
	}
	return &s, nil
}

func (f *fakeSocialRepo) CreateSocial(_ context.Context, s *model.Social) error {
	s.ID = f.ids.next("social")
	f.socials[s.ID] = *s
	return nil
}

func (f *fakeSocialRepo) UpdateSocial(_ context.Context, s *model.Social) error {
	if _, ok := f.socials[s.ID]; !ok {
		return apperror.NotFound("social", s.ID)
	}
	f.socials[s.ID] = *s
	return nil
}

func (f *fakeSocialRepo) DeleteSocial(_ context.Context, id string) error {
	if _, ok := f.socials[id]; !ok {
		return apperror.NotFound("social", id)
	}
	delete(f.socials, id)
	return nil
}

// ---- blog -------------------------------------------------------------------

type fakeBlogRepo struct {
	ids      idGen
	posts    map[string]model.BlogPost
	comments map[string]model.BlogComment
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{
		posts:    make(map[string]model.BlogPost),
		comments: make(map[string]model.BlogComment),
	}
}

func (f *fakeBlogRepo) slugTaken(slug, exceptID string) bool {
	for _, p := range f.posts {
		if p.Slug == slug && p.ID != exceptID {
			return true
		}
	}
	return false
}

func (f *fakeBlogRepo) ListPosts(context.Context) ([]model.BlogPost, error) {
	out := make([]model.BlogPost, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeBlogRepo) GetPost(_ context.Context, id string) (*model.BlogPost, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("blog post", id)
	}
	return &p, nil
}

func (f *fakeBlogRepo) GetPostBySlug(_ context.Context, slug string) (*model.BlogPost, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, apperror.NotFoundf("blog post not found with slug %s", slug)
}

func (f *fakeBlogRepo) CreatePost(_ context.Context, p *model.BlogPost) error {
	if f.slugTaken(p.Slug, "") {
		return apperror.Conflictf("a blog post with slug %q already exists", p.Slug)
	}
	p.ID = f.ids.next("post")
	f.posts[p.ID] = *p
	return nil
}

func (f *fakeBlogRepo) UpdatePost(_ context.Context, p *model.BlogPost) error {
	if _, ok := f.posts[p.ID]; !ok {
		return apperror.NotFound("blog post", p.ID)
	}
	if f.slugTaken(p.Slug, p.ID) {
		return apperror.Conflictf("a blog post with slug %q already exists", p.Slug)
	}
	f.posts[p.ID] = *p
	return nil
}

func (f *fakeBlogRepo) DeletePost(_ context.Context, id string) error {
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("blog post", id)
	}
	delete(f.posts, id)
	for cid, c := range f.comments {
		if c.PostID == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

func (f *fakeBlogRepo) ListComments(_ context.Context, postID string) ([]model.BlogComment, error) {
	out := []model.BlogComment{}
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBlogRepo) CreateComment(_ context.Context, c *model.BlogComment) error {
	if _, ok := f.posts[c.PostID]; !ok {
		return apperror.NotFound("blog post", c.PostID)
	}
	c.ID = f.ids.next("comment")
	f.comments[c.ID] = *c
	return nil
}

func (f *fakeBlogRepo) DeleteComment(_ context.Context, id string) error {
	if _, ok := f.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}
	delete(f.comments, id)
	return nil
}

// ---- messages -------------------------------------------------------------

type fakeMessageRepo struct {
	ids      idGen
	contacts []model.Contact
	feedback []model.Feedback
}

func (f *fakeMessageRepo) CreateContact(_ context.Context, c *model.Contact) error {
	c.ID = f.ids.next("contact")
	f.contacts = append(f.contacts, *c)
	return nil
}

func (f *fakeMessageRepo) ListContacts(context.Context) ([]model.Contact, error) {
	return append([]model.Contact{}, f.contacts...), nil
}

func (f *fakeMessageRepo) DeleteContact(_ context.Context, id string) error {
	for i, c := range f.contacts {
		if c.ID == id {
			f.contacts = append(f.contacts[:i], f.contacts[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("contact", id)
}

func (f *fakeMessageRepo) CreateFeedback(_ context.Context, fb *model.Feedback) error {
	fb.ID = f.ids.next("feedback")
	f.feedback = append(f.feedback, *fb)
	return nil
}

func (f *fakeMessageRepo) ListFeedback(context.Context) ([]model.Feedback, error) {
	return append([]model.Feedback{}, f.feedback...), nil
}

func (f *fakeMessageRepo) AverageRating(context.Context) (float64, error) {
	if len(f.feedback) == 0 {
		return 0, nil
	}
	sum := 0
	for _, fb := range f.feedback {
		sum += fb.Rating
	}
	return float64(sum) / float64(len(f.feedback)), nil
}

// ---- visitors & engagement --------------------------------------------------

type fakeVisitorRepo struct {
	mu     sync.Mutex
	seen   map[string]bool
	total  int64
	unique int64
}

func newFakeVisitorRepo() *fakeVisitorRepo {
	return &fakeVisitorRepo{seen: make(map[string]bool)}
}

func (f *fakeVisitorRepo) TrackVisit(_ context.Context, visitorID string, _ time.Time) (*model.VisitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	isNew := !f.seen[visitorID]
	f.seen[visitorID] = true
	f.total++
	if isNew {
		f.unique++
	}
	return &model.VisitResult{IsNewVisitor: isNew, TotalVisitors: f.total, UniqueVisitors: f.unique}, nil
}

func (f *fakeVisitorRepo) VisitorStats(context.Context) (*model.VisitorStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.VisitorStats{TotalVisitors: f.total, UniqueVisitors: f.unique}, nil
}

type fakeLedger struct {
	posts   *fakeBlogRepo
	entries []model.Engagement
}

func (f *fakeLedger) AwardEngagement(_ context.Context, e *model.Engagement) (bool, error) {
	if _, ok := f.posts.posts[e.PostID]; !ok {
		return false, apperror.NotFound("blog post", e.PostID)
	}
	for _, x := range f.entries {
		if x.VisitorID == e.VisitorID && x.PostID == e.PostID && x.Action == e.Action {
			return false, nil
		}
	}
	f.entries = append(f.entries, *e)
	return true, nil
}

func (f *fakeLedger) VisitorEngagements(_ context.Context, visitorID string) ([]model.Engagement, error) {
	var out []model.Engagement
	for _, x := range f.entries {
		if x.VisitorID == visitorID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f *fakeLedger) PostEngagementCounts(_ context.Context, postID string) (map[model.Action]int, error) {
	out := make(map[model.Action]int)
	for _, x := range f.entries {
		if x.PostID == postID {
			out[x.Action]++
		}
	}
	return out, nil
}

// ---- counts ---------------------------------------------------------------

type fakeCounts struct {
	mu     sync.Mutex
	counts map[repository.Table]int64
	err    error
}

func (f *fakeCounts) Count(_ context.Context, table repository.Table) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[table], nil
}

var fixedTime = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
