package main

import (
	"errors"
	"net/http"

	"github.com/haiminhng/penwright/internal/common"
	"github.com/haiminhng/penwright/internal/reactionservice"
)

type setLikeRequest struct {
	Type string `json:"type"`
}

func (app *application) setPostLikeHandler(w http.ResponseWriter, r *http.Request) {
	app.setLike(w, r, reactionservice.PostTarget)
}

func (app *application) setCommentLikeHandler(w http.ResponseWriter, r *http.Request) {
	app.setLike(w, r, reactionservice.CommentTarget)
}

func (app *application) setLike(w http.ResponseWriter, r *http.Request, target func(int) reactionservice.Target) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input setLikeRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	result, err := app.reactionService.SetLike(r.Context(), user.ID, target(id), reactionservice.LikeKind(input.Type))
	if err != nil {
		app.reactionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"result": result}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostLikeCountsHandler(w http.ResponseWriter, r *http.Request) {
	app.getLikeCounts(w, r, reactionservice.PostTarget)
}

func (app *application) getCommentLikeCountsHandler(w http.ResponseWriter, r *http.Request) {
	app.getLikeCounts(w, r, reactionservice.CommentTarget)
}

func (app *application) getLikeCounts(w http.ResponseWriter, r *http.Request, target func(int) reactionservice.Target) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	counts, err := app.reactionService.Counts(r.Context(), target(id))
	if err != nil {
		app.reactionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"counts": counts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostLikeStatusHandler(w http.ResponseWriter, r *http.Request) {
	app.getLikeStatus(w, r, reactionservice.PostTarget)
}

func (app *application) getCommentLikeStatusHandler(w http.ResponseWriter, r *http.Request) {
	app.getLikeStatus(w, r, reactionservice.CommentTarget)
}

func (app *application) getLikeStatus(w http.ResponseWriter, r *http.Request, target func(int) reactionservice.Target) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	kind, err := app.reactionService.UserLike(r.Context(), user.ID, target(id))
	if err != nil {
		app.reactionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"status": kind}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type setRatingRequest struct {
	Value int `json:"value"`
}

func (app *application) setPostRatingHandler(w http.ResponseWriter, r *http.Request) {
	app.setRating(w, r, reactionservice.PostTarget)
}

func (app *application) setCommentRatingHandler(w http.ResponseWriter, r *http.Request) {
	app.setRating(w, r, reactionservice.CommentTarget)
}

func (app *application) setRating(w http.ResponseWriter, r *http.Request, target func(int) reactionservice.Target) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input setRatingRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.reactionService.SetRating(r.Context(), user.ID, target(id), input.Value)
	if err != nil {
		app.reactionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "rating recorded"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostRatingStatsHandler(w http.ResponseWriter, r *http.Request) {
	app.getRatingStats(w, r, reactionservice.PostTarget)
}

func (app *application) getCommentRatingStatsHandler(w http.ResponseWriter, r *http.Request) {
	app.getRatingStats(w, r, reactionservice.CommentTarget)
}

func (app *application) getRatingStats(w http.ResponseWriter, r *http.Request, target func(int) reactionservice.Target) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	stats, err := app.reactionService.RatingStats(r.Context(), target(id))
	if err != nil {
		app.reactionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"stats": stats}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostRatingStatusHandler(w http.ResponseWriter, r *http.Request) {
	app.getRatingStatus(w, r, reactionservice.PostTarget)
}

func (app *application) getCommentRatingStatusHandler(w http.ResponseWriter, r *http.Request) {
	app.getRatingStatus(w, r, reactionservice.CommentTarget)
}

func (app *application) getRatingStatus(w http.ResponseWriter, r *http.Request, target func(int) reactionservice.Target) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	rating, err := app.reactionService.UserRating(r.Context(), user.ID, target(id))
	if err != nil {
		app.reactionErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"rating": rating}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) reactionErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, reactionservice.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.As(err, &common.ValidationError{}):
		validationErr := err.(common.ValidationError)
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
