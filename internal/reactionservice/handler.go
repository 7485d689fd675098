package reactionservice

import (
	"context"
	"database/sql"

	"github.com/haiminhng/penwright/internal/common"
)

func NewReactionService(db *sql.DB) *ReactionService {
	return &ReactionService{m: newReactionModel(db)}
}

func validateTarget(v *common.Validator, t Target) {
	v.Check(t.ID() > 0, string(t.Kind())+"_id", "must be greater than zero")
}

func validateKind(v *common.Validator, kind LikeKind) {
	v.Check(kind == KindLike || kind == KindDislike, "type", "must be either like or dislike")
}

// SetLike toggles the like state for a (user, target) pair: a fresh pair
// records the kind, the same kind removes it, the opposite kind changes it in
// place. At most one row ever exists per pair.
func (s *ReactionService) SetLike(ctx context.Context, userID int, target Target, kind LikeKind) (LikeResult, error) {
	v := common.NewValidator()
	validateTarget(v, target)
	validateKind(v, kind)
	v.Check(userID > 0, "user_id", "must be greater than zero")
	if !v.Valid() {
		return "", v.ValidationError()
	}

	exists, err := s.m.targetExists(ctx, target)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrRecordNotFound
	}

	return s.m.toggleLike(ctx, userID, target, kind)
}

// Counts returns the like and dislike totals for a target as of the latest
// committed state. Available to anonymous callers.
func (s *ReactionService) Counts(ctx context.Context, target Target) (*LikeCounts, error) {
	v := common.NewValidator()
	validateTarget(v, target)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.likeCounts(ctx, target)
}

// UserLike returns the caller's recorded kind for a target, or nil when no
// reaction exists. Anonymous callers get nil, never an error.
func (s *ReactionService) UserLike(ctx context.Context, userID int, target Target) (*LikeKind, error) {
	v := common.NewValidator()
	validateTarget(v, target)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if userID <= 0 {
		return nil, nil
	}

	return s.m.userLike(ctx, userID, target)
}

// SetRating records or overwrites the caller's 1-5 star rating for a target.
// Re-submitting the same value updates in place; ratings never toggle off.
func (s *ReactionService) SetRating(ctx context.Context, userID int, target Target, value int) error {
	v := common.NewValidator()
	validateTarget(v, target)
	v.Check(userID > 0, "user_id", "must be greater than zero")
	v.Check(v.CheckIntRange(value, 1, 5), "rating", "must be between 1 and 5")
	if !v.Valid() {
		return v.ValidationError()
	}

	exists, err := s.m.targetExists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRecordNotFound
	}

	return s.m.upsertRating(ctx, userID, target, value)
}

// RatingStats returns the average (one decimal place) and count of ratings for
// a target. A target with no ratings reports {0, 0}.
func (s *ReactionService) RatingStats(ctx context.Context, target Target) (*RatingStats, error) {
	v := common.NewValidator()
	validateTarget(v, target)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.ratingStats(ctx, target)
}

// UserRating returns the caller's rating value for a target, or nil when none
// exists. Anonymous callers get nil, never an error.
func (s *ReactionService) UserRating(ctx context.Context, userID int, target Target) (*int, error) {
	v := common.NewValidator()
	validateTarget(v, target)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if userID <= 0 {
		return nil, nil
	}

	return s.m.userRating(ctx, userID, target)
}
