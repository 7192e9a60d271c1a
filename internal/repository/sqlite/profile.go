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
	_ repository.ProfileRepository = (*DB)(nil)
	_ repository.ResumeRepository  = (*DB)(nil)
)

const profileColumns = `id, full_name, title, bio, email, phone, location, avatar_url, header_image, created_at, updated_at`

// GetProfile returns the first profile row. There is only ever meant to be
// one; "first" is by creation time so a stray second row never wins.
func (db *DB) GetProfile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at ASC, id ASC LIMIT 1`,
	).Scan(
		&p.ID, &p.FullName, &p.Title, &p.Bio, &p.Email, &p.Phone,
		&p.Location, &p.AvatarURL, &p.HeaderImage, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundf("profile not found")
		}
		return nil, fmt.Errorf("sqlite: getting profile: %w", err)
	}
	return &p, nil
}

// SaveProfile upserts the singleton. When a profile exists its ID and
// CreatedAt are kept and every other column is overwritten from profile.
//
// The lookup and the write run in one transaction so two concurrent first
// saves cannot both insert.
func (db *DB) SaveProfile(ctx context.Context, profile *model.Profile) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning profile transaction: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	profile.UpdatedAt = ts

	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM profiles ORDER BY created_at ASC, id ASC LIMIT 1`,
	).Scan(&existingID, &profile.CreatedAt)

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		created = true
		profile.ID = xid.New().String()
		profile.CreatedAt = ts
		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			profile.ID, profile.FullName, profile.Title, profile.Bio, profile.Email,
			profile.Phone, profile.Location, profile.AvatarURL, profile.HeaderImage,
			profile.CreatedAt, profile.UpdatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("sqlite: inserting profile: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("sqlite: looking up profile: %w", err)
	default:
		profile.ID = existingID
		_, err = tx.ExecContext(ctx,
			`UPDATE profiles
			 SET full_name = ?, title = ?, bio = ?, email = ?, phone = ?, location = ?,
			     avatar_url = ?, header_image = ?, updated_at = ?
			 WHERE id = ?`,
			profile.FullName, profile.Title, profile.Bio, profile.Email, profile.Phone,
			profile.Location, profile.AvatarURL, profile.HeaderImage, profile.UpdatedAt,
			profile.ID,
		)
		if err != nil {
			return false, fmt.Errorf("sqlite: updating profile %s: %w", profile.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing profile: %w", err)
	}
	return created, nil
}

// GetResume returns the current resume record.
func (db *DB) GetResume(ctx context.Context) (*model.Resume, error) {
	var r model.Resume
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, filename, url, uploaded_at FROM resumes ORDER BY uploaded_at DESC, id DESC LIMIT 1`,
	).Scan(&r.ID, &r.Filename, &r.URL, &r.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundf("resume not found")
		}
		return nil, fmt.Errorf("sqlite: getting resume: %w", err)
	}
	return &r, nil
}

// SaveResume replaces the resume record. Every save counts as a new upload,
// so UploadedAt is always reset.
func (db *DB) SaveResume(ctx context.Context, resume *model.Resume) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning resume transaction: %w", err)
	}
	defer tx.Rollback()

	resume.UploadedAt = now()

	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM resumes ORDER BY uploaded_at DESC, id DESC LIMIT 1`,
	).Scan(&existingID)

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		created = true
		resume.ID = xid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO resumes (id, filename, url, uploaded_at) VALUES (?, ?, ?, ?)`,
			resume.ID, resume.Filename, resume.URL, resume.UploadedAt,
		)
		if err != nil {
			return false, fmt.Errorf("sqlite: inserting resume: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("sqlite: looking up resume: %w", err)
	default:
		resume.ID = existingID
		_, err = tx.ExecContext(ctx,
			`UPDATE resumes SET filename = ?, url = ?, uploaded_at = ? WHERE id = ?`,
			resume.Filename, resume.URL, resume.UploadedAt, resume.ID,
		)
		if err != nil {
			return false, fmt.Errorf("sqlite: updating resume %s: %w", resume.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing resume: %w", err)
	}
	return created, nil
}

func (db *DB) DeleteResume(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM resumes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting resume %s: %w", id, err)
	}
	return checkAffected(result, "resume", id)
}
