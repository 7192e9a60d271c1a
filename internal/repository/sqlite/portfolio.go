package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

var (
	_ repository.SkillRepository      = (*DB)(nil)
	_ repository.ProjectRepository    = (*DB)(nil)
	_ repository.ExperienceRepository = (*DB)(nil)
	_ repository.SocialRepository     = (*DB)(nil)
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so a single scan
// function serves Get and List.
type rowScanner interface {
	Scan(dest ...any) error
}

// =========================================================================
// SKILLS
// =========================================================================

const skillColumns = `id, name, category, level, created_at, updated_at`

func scanSkill(row rowScanner) (model.Skill, error) {
	var s model.Skill
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Level, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// ListSkills returns skills grouped by category, alphabetical within each.
func (db *DB) ListSkills(ctx context.Context) ([]model.Skill, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+skillColumns+` FROM skills ORDER BY category ASC, name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing skills: %w", err)
	}
	defer rows.Close()

	skills := []model.Skill{}
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning skill row: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating skill rows: %w", err)
	}
	return skills, nil
}

func (db *DB) GetSkill(ctx context.Context, id string) (*model.Skill, error) {
	s, err := scanSkill(db.conn.QueryRowContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("skill", id)
		}
		return nil, fmt.Errorf("sqlite: getting skill %s: %w", id, err)
	}
	return &s, nil
}

func (db *DB) CreateSkill(ctx context.Context, skill *model.Skill) error {
	ts := now()
	skill.ID = xid.New().String()
	skill.CreatedAt = ts
	skill.UpdatedAt = ts

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO skills (`+skillColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		skill.ID, skill.Name, skill.Category, skill.Level, skill.CreatedAt, skill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting skill: %w", err)
	}
	return nil
}

// UpdateSkill overwrites every mutable column. Partial updates are merged
// by the service before they get here.
func (db *DB) UpdateSkill(ctx context.Context, skill *model.Skill) error {
	skill.UpdatedAt = now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE skills SET name = ?, category = ?, level = ?, updated_at = ? WHERE id = ?`,
		skill.Name, skill.Category, skill.Level, skill.UpdatedAt, skill.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating skill %s: %w", skill.ID, err)
	}
	return checkAffected(result, "skill", skill.ID)
}

func (db *DB) DeleteSkill(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting skill %s: %w", id, err)
	}
	return checkAffected(result, "skill", id)
}

// =========================================================================
// PROJECTS
// =========================================================================

const projectColumns = `id, title, description, category, tags, image, demo_url, github_url, created_at, updated_at`

func scanProject(row rowScanner) (model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Category, &p.Tags,
		&p.Image, &p.DemoURL, &p.GitHubURL, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// ListProjects returns projects newest first.
func (db *DB) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating project rows: %w", err)
	}
	return projects, nil
}

func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return &p, nil
}

func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	ts := now()
	project.ID = xid.New().String()
	project.CreatedAt = ts
	project.UpdatedAt = ts
	if project.Tags == nil {
		project.Tags = model.StringList{}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Title, project.Description, project.Category, project.Tags,
		project.Image, project.DemoURL, project.GitHubURL, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting project: %w", err)
	}
	return nil
}

func (db *DB) UpdateProject(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = now()
	if project.Tags == nil {
		project.Tags = model.StringList{}
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE projects
		 SET title = ?, description = ?, category = ?, tags = ?, image = ?,
		     demo_url = ?, github_url = ?, updated_at = ?
		 WHERE id = ?`,
		project.Title, project.Description, project.Category, project.Tags, project.Image,
		project.DemoURL, project.GitHubURL, project.UpdatedAt, project.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", project.ID, err)
	}
	return checkAffected(result, "project", project.ID)
}

func (db *DB) DeleteProject(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %s: %w", id, err)
	}
	return checkAffected(result, "project", id)
}

// =========================================================================
// EXPERIENCES
// =========================================================================

const experienceColumns = `id, company, job_title, description, start_date, end_date, technologies, created_at, updated_at`

func scanExperience(row rowScanner) (model.Experience, error) {
	var (
		e   model.Experience
		end sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.Company, &e.JobTitle, &e.Description, &e.StartDate,
		&end, &e.Technologies, &e.CreatedAt, &e.UpdatedAt,
	)
	if end.Valid {
		e.EndDate = &end.String
	}
	return e, err
}

// endDateValue maps a missing or blank end date to NULL ("current position").
func endDateValue(end *string) any {
	if end == nil || *end == "" {
		return nil
	}
	return *end
}

// ListExperiences returns positions by start date, most recent first.
// Dates are ISO strings, so lexical order is chronological order.
func (db *DB) ListExperiences(ctx context.Context) ([]model.Experience, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+experienceColumns+` FROM experiences ORDER BY start_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing experiences: %w", err)
	}
	defer rows.Close()

	exps := []model.Experience{}
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning experience row: %w", err)
		}
		exps = append(exps, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating experience rows: %w", err)
	}
	return exps, nil
}

func (db *DB) GetExperience(ctx context.Context, id string) (*model.Experience, error) {
	e, err := scanExperience(db.conn.QueryRowContext(ctx,
		`SELECT `+experienceColumns+` FROM experiences WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("experience", id)
		}
		return nil, fmt.Errorf("sqlite: getting experience %s: %w", id, err)
	}
	return &e, nil
}

func (db *DB) CreateExperience(ctx context.Context, exp *model.Experience) error {
	ts := now()
	exp.ID = xid.New().String()
	exp.CreatedAt = ts
	exp.UpdatedAt = ts
	if exp.Technologies == nil {
		exp.Technologies = model.StringList{}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO experiences (`+experienceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.Company, exp.JobTitle, exp.Description, exp.StartDate,
		endDateValue(exp.EndDate), exp.Technologies, exp.CreatedAt, exp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting experience: %w", err)
	}
	return nil
}

func (db *DB) UpdateExperience(ctx context.Context, exp *model.Experience) error {
	exp.UpdatedAt = now()
	if exp.Technologies == nil {
		exp.Technologies = model.StringList{}
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE experiences
		 SET company = ?, job_title = ?, description = ?, start_date = ?, end_date = ?,
		     technologies = ?, updated_at = ?
		 WHERE id = ?`,
		exp.Company, exp.JobTitle, exp.Description, exp.StartDate, endDateValue(exp.EndDate),
		exp.Technologies, exp.UpdatedAt, exp.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating experience %s: %w", exp.ID, err)
	}
	return checkAffected(result, "experience", exp.ID)
}

func (db *DB) DeleteExperience(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM experiences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting experience %s: %w", id, err)
	}
	return checkAffected(result, "experience", id)
}

// =========================================================================
// SOCIALS
// =========================================================================

const socialColumns = `id, name, url, icon, created_at, updated_at`

func scanSocial(row rowScanner) (model.Social, error) {
	var s model.Social
	err := row.Scan(&s.ID, &s.Name, &s.URL, &s.Icon, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (db *DB) ListSocials(ctx context.Context) ([]model.Social, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+socialColumns+` FROM socials ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing socials: %w", err)
	}
	defer rows.Close()

	socials := []model.Social{}
	for rows.Next() {
		s, err := scanSocial(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning social row: %w", err)
		}
		socials = append(socials, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating social rows: %w", err)
	}
	return socials, nil
}

func (db *DB) GetSocial(ctx context.Context, id string) (*model.Social, error) {
	s, err := scanSocial(db.conn.QueryRowContext(ctx,
		`SELECT `+socialColumns+` FROM socials WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("social", id)
		}
		return nil, fmt.Errorf("sqlite: getting social %s: %w", id, err)
	}
	return &s, nil
}

func (db *DB) CreateSocial(ctx context.Context, social *model.Social) error {
	ts := now()
	social.ID = xid.New().String()
	social.CreatedAt = ts
	social.UpdatedAt = ts

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO socials (`+socialColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		social.ID, social.Name, social.URL, social.Icon, social.CreatedAt, social.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting social: %w", err)
	}
	return nil
}

func (db *DB) UpdateSocial(ctx context.Context, social *model.Social) error {
	social.UpdatedAt = now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE socials SET name = ?, url = ?, icon = ?, updated_at = ? WHERE id = ?`,
		social.Name, social.URL, social.Icon, social.UpdatedAt, social.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating social %s: %w", social.ID, err)
	}
	return checkAffected(result, "social", social.ID)
}

func (db *DB) DeleteSocial(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM socials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting social %s: %w", id, err)
	}
	return checkAffected(result, "social", id)
}
