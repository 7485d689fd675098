package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/haiminhng/penwright/internal/userservice"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/activate", app.activateUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/profile", app.requireAuthUser(app.getProfileHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/profile", app.requireAuthUser(app.updateProfileHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/saved/:postId", app.requireActivatedUser(http.HandlerFunc(app.toggleSavedPostHandler)))
	router.HandlerFunc(http.MethodGet, "/v1/users/saved", app.requireAuthUser(app.listSavedPostsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users", app.requireAdmin(app.listUsersHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/users/me", app.requireAuthUser(app.deleteAccountHandler))

	// post service
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requirePermission(app.createPostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug", app.getPostHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/:id", app.requirePermission(app.updatePostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:id", app.requirePermission(app.deletePostHandler, userservice.PermissionWritePost))
	router.HandlerFunc(http.MethodPut, "/v1/posts/:id/activate", app.requireAdmin(app.togglePostActiveHandler))
	router.HandlerFunc(http.MethodPut, "/v1/posts/:id/feature", app.requireAdmin(app.togglePostFeaturedHandler))

	// categories
	router.HandlerFunc(http.MethodGet, "/v1/categories", app.listCategoriesHandler)
	router.HandlerFunc(http.MethodPost, "/v1/categories", app.requireAdmin(app.createCategoryHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/categories/:id", app.requireAdmin(app.deleteCategoryHandler))

	// comment service
	router.HandlerFunc(http.MethodGet, "/v1/comments/:postId", app.listCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/comments/:postId", app.requireActivatedUser(http.HandlerFunc(app.createCommentHandler)))
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:commentId", app.requireActivatedUser(http.HandlerFunc(app.deleteCommentHandler)))

	// reaction service
	router.HandlerFunc(http.MethodPost, "/v1/likes/posts/:id", app.requireActivatedUser(http.HandlerFunc(app.setPostLikeHandler)))
	router.HandlerFunc(http.MethodPost, "/v1/likes/comments/:id", app.requireActivatedUser(http.HandlerFunc(app.setCommentLikeHandler)))
	router.HandlerFunc(http.MethodGet, "/v1/likes/posts/:id/counts", app.getPostLikeCountsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/likes/comments/:id/counts", app.getCommentLikeCountsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/likes/posts/:id/status", app.getPostLikeStatusHandler)
	router.HandlerFunc(http.MethodGet, "/v1/likes/comments/:id/status", app.getCommentLikeStatusHandler)
	router.HandlerFunc(http.MethodPost, "/v1/ratings/posts/:id", app.requireActivatedUser(http.HandlerFunc(app.setPostRatingHandler)))
	router.HandlerFunc(http.MethodPost, "/v1/ratings/comments/:id", app.requireActivatedUser(http.HandlerFunc(app.setCommentRatingHandler)))
	router.HandlerFunc(http.MethodGet, "/v1/ratings/posts/:id/stats", app.getPostRatingStatsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/ratings/comments/:id/stats", app.getCommentRatingStatsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/ratings/posts/:id/status", app.getPostRatingStatusHandler)
	router.HandlerFunc(http.MethodGet, "/v1/ratings/comments/:id/status", app.getCommentRatingStatusHandler)

	return app.recoverPanic(app.rateLimit(app.logRequest(app.authenticate(router))))
}
