package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

var (
	_ repository.VisitorRepository    = (*DB)(nil)
	_ repository.EngagementRepository = (*DB)(nil)
)

// counterID is the primary key of the single visitor_counters row, created
// by the initial migration.
const counterID = "main"

// TrackVisit records a visit by the given token.
//
// Uniqueness is decided by INSERT OR IGNORE against the UNIQUE visitor_id
// index: RowsAffected is 1 only for the first visit. Counters are bumped
// with SQL-side arithmetic (total = total + 1) inside the same transaction,
// so two concurrent visits can never read the same old value and lose an
// increment.
func (db *DB) TrackVisit(ctx context.Context, visitorID string, at time.Time) (*model.VisitResult, error) {
	at = at.UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning visit transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO visitor_logs (id, visitor_id, first_visit, last_visit)
		 VALUES (?, ?, ?, ?)`,
		xid.New().String(), visitorID, at, at,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: logging visitor: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	isNew := inserted == 1

	if !isNew {
		if _, err := tx.ExecContext(ctx,
			`UPDATE visitor_logs SET last_visit = ? WHERE visitor_id = ?`, at, visitorID,
		); err != nil {
			return nil, fmt.Errorf("sqlite: updating last visit: %w", err)
		}
	}

	uniqueInc := 0
	if isNew {
		uniqueInc = 1
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE visitor_counters
		 SET total_visitors = total_visitors + 1,
		     unique_visitors = unique_visitors + ?,
		     last_updated = ?
		 WHERE id = ?`,
		uniqueInc, at, counterID,
	); err != nil {
		return nil, fmt.Errorf("sqlite: incrementing visitor counters: %w", err)
	}

	res := &model.VisitResult{IsNewVisitor: isNew}
	if err := tx.QueryRowContext(ctx,
		`SELECT total_visitors, unique_visitors FROM visitor_counters WHERE id = ?`, counterID,
	).Scan(&res.TotalVisitors, &res.UniqueVisitors); err != nil {
		return nil, fmt.Errorf("sqlite: reading visitor counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing visit: %w", err)
	}
	return res, nil
}

func (db *DB) VisitorStats(ctx context.Context) (*model.VisitorStats, error) {
	var s model.VisitorStats
	err := db.conn.QueryRowContext(ctx,
		`SELECT total_visitors, unique_visitors, last_updated FROM visitor_counters WHERE id = ?`,
		counterID,
	).Scan(&s.TotalVisitors, &s.UniqueVisitors, &s.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading visitor stats: %w", err)
	}
	return &s, nil
}

// =========================================================================
// ENGAGEMENT LEDGER
// =========================================================================

// AwardEngagement inserts the ledger row unless this visitor already earned
// this action on this post. The composite primary key makes the check and
// the insert one atomic statement.
//
// A missing post is reported by the foreign key and mapped to NotFound.
func (db *DB) AwardEngagement(ctx context.Context, e *model.Engagement) (bool, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO engagements (visitor_id, post_id, action, points, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (visitor_id, post_id, action) DO NOTHING`,
		e.VisitorID, e.PostID, string(e.Action), e.Points, e.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, apperror.NotFound("blog post", e.PostID)
		}
		return false, fmt.Errorf("sqlite: awarding %s on post %s: %w", e.Action, e.PostID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n == 1, nil
}

// VisitorEngagements returns everything a visitor has earned, oldest first.
func (db *DB) VisitorEngagements(ctx context.Context, visitorID string) ([]model.Engagement, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT visitor_id, post_id, action, points, created_at
		 FROM engagements WHERE visitor_id = ? ORDER BY created_at ASC, post_id ASC, action ASC`,
		visitorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing engagements: %w", err)
	}
	defer rows.Close()

	list := []model.Engagement{}
	for rows.Next() {
		var (
			e      model.Engagement
			action string
		)
		if err := rows.Scan(&e.VisitorID, &e.PostID, &action, &e.Points, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning engagement row: %w", err)
		}
		e.Action = model.Action(action)
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating engagement rows: %w", err)
	}
	return list, nil
}

// PostEngagementCounts returns, per action, how many distinct visitors
// performed it on the post. Actions nobody performed are absent.
func (db *DB) PostEngagementCounts(ctx context.Context, postID string) (map[model.Action]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT action, COUNT(*) FROM engagements WHERE post_id = ? GROUP BY action`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting engagements for post %s: %w", postID, err)
	}
	defer rows.Close()

	counts := make(map[model.Action]int)
	for rows.Next() {
		var (
			action string
			n      int
		)
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning engagement count: %w", err)
		}
		counts[model.Action(action)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating engagement counts: %w", err)
	}
	return counts, nil
}
