package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

var (
	_ repository.ContactRepository  = (*DB)(nil)
	_ repository.FeedbackRepository = (*DB)(nil)
)

func (db *DB) CreateContact(ctx context.Context, contact *model.Contact) error {
	contact.ID = xid.New().String()
	contact.CreatedAt = now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO contacts (id, name, email, subject, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		contact.ID, contact.Name, contact.Email, contact.Subject, contact.Message, contact.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting contact: %w", err)
	}
	return nil
}

// ListContacts returns messages newest first.
func (db *DB) ListContacts(ctx context.Context) ([]model.Contact, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, email, subject, message, created_at
		 FROM contacts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contacts: %w", err)
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contact rows: %w", err)
	}
	return contacts, nil
}

func (db *DB) DeleteContact(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting contact %s: %w", id, err)
	}
	return checkAffected(result, "contact", id)
}

func (db *DB) CreateFeedback(ctx context.Context, fb *model.Feedback) error {
	fb.ID = xid.New().String()
	fb.CreatedAt = now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO feedback (id, rating, comment, created_at) VALUES (?, ?, ?, ?)`,
		fb.ID, fb.Rating, fb.Comment, fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting feedback: %w", err)
	}
	return nil
}

func (db *DB) ListFeedback(ctx context.Context) ([]model.Feedback, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, rating, comment, created_at FROM feedback ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feedback: %w", err)
	}
	defer rows.Close()

	list := []model.Feedback{}
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feedback row: %w", err)
		}
		list = append(list, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feedback rows: %w", err)
	}
	return list, nil
}

// AverageRating returns the mean rating, or 0 when there is no feedback yet.
func (db *DB) AverageRating(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := db.conn.QueryRowContext(ctx, `SELECT AVG(rating) FROM feedback`).Scan(&avg); err != nil {
		return 0, fmt.Errorf("sqlite: averaging feedback ratings: %w", err)
	}
	return avg.Float64, nil
}
