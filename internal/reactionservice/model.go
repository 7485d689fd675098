package reactionservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/haiminhng/penwright/internal/common"
)

var ErrRecordNotFound = errors.New("record not found")

func newReactionModel(db *sql.DB) *ReactionModel {
	return &ReactionModel{db: db}
}

// targetExists checks that the post or comment the reaction attaches to is
// still present.
func (m *ReactionModel) targetExists(ctx context.Context, t Target) (bool, error) {
	var table string
	switch t.Kind() {
	case TargetComment:
		table = "comments"
	default:
		table = "posts"
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)

	var exists bool
	err := m.db.QueryRowContext(ctx, query, t.ID()).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// toggleLike applies the toggle semantics for one (user, target) pair. The
// existing row, if any, is locked with FOR UPDATE so concurrent toggles for
// the same pair serialize on the row; the insert race for a fresh pair is
// arbitrated by the partial unique index, and the loser falls through to an
// update so the requested kind still wins.
func (m *ReactionModel) toggleLike(ctx context.Context, userID int, t Target, kind LikeKind) (LikeResult, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	col := t.column()

	var (
		id      int
		current LikeKind
	)

	query := fmt.Sprintf(`
		SELECT id, kind
		FROM likes
		WHERE user_id = $1 AND %s = $2
		FOR UPDATE`, col)

	err = tx.QueryRowContext(ctx, query, userID, t.ID()).Scan(&id, &current)

	var result LikeResult

	switch {
	case errors.Is(err, sql.ErrNoRows):
		insert := fmt.Sprintf(`
			INSERT INTO likes (user_id, %[1]s, kind)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, %[1]s) WHERE %[1]s IS NOT NULL DO NOTHING`, col)

		res, err := tx.ExecContext(ctx, insert, userID, t.ID(), kind)
		if err != nil {
			return "", err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return "", err
		}

		if rows == 0 {
			// A concurrent call inserted first. The requested kind wins.
			update := fmt.Sprintf(`
				UPDATE likes
				SET kind = $3, updated_at = now()
				WHERE user_id = $1 AND %s = $2`, col)

			if _, err := tx.ExecContext(ctx, update, userID, t.ID(), kind); err != nil {
				return "", err
			}
		}
		result = LikeCreated

	case err != nil:
		return "", err

	case current == kind:
		if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE id = $1`, id); err != nil {
			return "", err
		}
		result = LikeRemoved

	default:
		if _, err := tx.ExecContext(ctx, `UPDATE likes SET kind = $1, updated_at = now() WHERE id = $2`, kind, id); err != nil {
			return "", err
		}
		result = LikeChanged
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return result, nil
}

func (m *ReactionModel) likeCounts(ctx context.Context, t Target) (*LikeCounts, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FILTER (WHERE kind = 'like'), COUNT(*) FILTER (WHERE kind = 'dislike')
		FROM likes
		WHERE %s = $1`, t.column())

	var counts LikeCounts
	err := m.db.QueryRowContext(ctx, query, t.ID()).Scan(&counts.Likes, &counts.Dislikes)
	if err != nil {
		return nil, err
	}

	return &counts, nil
}

func (m *ReactionModel) userLike(ctx context.Context, userID int, t Target) (*LikeKind, error) {
	query := fmt.Sprintf(`
		SELECT kind
		FROM likes
		WHERE user_id = $1 AND %s = $2`, t.column())

	var kind LikeKind
	err := m.db.QueryRowContext(ctx, query, userID, t.ID()).Scan(&kind)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}

	return &kind, nil
}

// upsertRating inserts or overwrites the rating for one (user, target) pair in
// a single statement; the partial unique index is the arbiter, so concurrent
// submissions never produce two rows. Re-submitting the same value is a no-op
// update, not a toggle.
func (m *ReactionModel) upsertRating(ctx context.Context, userID int, t Target, value int) error {
	col := t.column()

	query := fmt.Sprintf(`
		INSERT INTO ratings (user_id, %[1]s, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, %[1]s) WHERE %[1]s IS NOT NULL
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, col)

	_, err := m.db.ExecContext(ctx, query, userID, t.ID(), value)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "ratings_user_id_fkey"):
			return ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *ReactionModel) ratingStats(ctx context.Context, t Target) (*RatingStats, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(ROUND(AVG(value), 1), 0), COUNT(*)
		FROM ratings
		WHERE %s = $1`, t.column())

	var stats RatingStats
	err := m.db.QueryRowContext(ctx, query, t.ID()).Scan(&stats.Average, &stats.Count)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (m *ReactionModel) userRating(ctx context.Context, userID int, t Target) (*int, error) {
	query := fmt.Sprintf(`
		SELECT value
		FROM ratings
		WHERE user_id = $1 AND %s = $2`, t.column())

	var value int
	err := m.db.QueryRowContext(ctx, query, userID, t.ID()).Scan(&value)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}

	return &value, nil
}
