// Package router maps the HTTP surface onto the user service: request
// decoding and validation, status code selection and JSON rendering.
// Expected business failures become 400/404 bodies; anything else is
// logged and answered with a generic 500.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/usersvc/internal/logger"
	"github.com/patric-chuzhbe/usersvc/internal/models"
	"github.com/patric-chuzhbe/usersvc/internal/service"
)

type userService interface {
	CreateUser(ctx context.Context, name, email string) (*models.User, error)

	GetUser(ctx context.Context, id int) (*models.User, error)

	ListUsers(ctx context.Context) ([]models.User, error)

	UpdateUser(ctx context.Context, id int, name, email string) (*models.User, error)

	DeleteUser(ctx context.Context, id int) (*models.User, error)

	Ping(ctx context.Context) error
}

// Router holds the handlers' dependencies.
type Router struct {
	service  userService
	validate *validator.Validate
}

// New builds the chi mux with logging middleware and all user routes.
func New(service userService) *chi.Mux {
	theRouter := &Router{
		service:  service,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)

	router.Get(`/`, theRouter.GetRoot)
	router.Get(`/ping`, theRouter.GetPing)

	router.Route(`/api/users`, func(router chi.Router) {
		router.Post(`/`, theRouter.PostApiusers)
		router.Get(`/`, theRouter.GetApiusers)
		router.Get(`/{id}`, theRouter.GetApiusersid)
		router.Put(`/{id}`, theRouter.PutApiusersid)
		router.Delete(`/{id}`, theRouter.DeleteApiusersid)
	})

	return router
}

// GetRoot reports that the API is up.
func (rt *Router) GetRoot(res http.ResponseWriter, req *http.Request) {
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write([]byte("API is running..."))
}

// GetPing checks the storage backend health.
func (rt *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := rt.service.Ping(req.Context()); err != nil {
		writeServerError(res, "storage ping failed", err)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// PostApiusers creates a user from a validated JSON body.
func (rt *Router) PostApiusers(res http.ResponseWriter, req *http.Request) {
	request, ok := rt.decodeAndValidateUserRequest(res, req)
	if !ok {
		return
	}

	usr, err := rt.service.CreateUser(req.Context(), request.Name, request.Email)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			writeJSON(res, http.StatusBadRequest, models.ErrorResponse{Error: "Email already exists"})
			return
		}
		writeServerError(res, "failed to create user", err)
		return
	}

	writeJSON(res, http.StatusCreated, usr)
}

// GetApiusers lists all users in ascending id order.
func (rt *Router) GetApiusers(res http.ResponseWriter, req *http.Request) {
	users, err := rt.service.ListUsers(req.Context())
	if err != nil {
		writeServerError(res, "failed to fetch users", err)
		return
	}

	writeJSON(res, http.StatusOK, users)
}

// GetApiusersid returns a single user by id.
func (rt *Router) GetApiusersid(res http.ResponseWriter, req *http.Request) {
	id, ok := userIDFromRequest(res, req)
	if !ok {
		return
	}

	usr, err := rt.service.GetUser(req.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeUserNotFound(res)
			return
		}
		writeServerError(res, "failed to fetch user", err)
		return
	}

	writeJSON(res, http.StatusOK, usr)
}

// PutApiusersid replaces name and email of an existing user.
func (rt *Router) PutApiusersid(res http.ResponseWriter, req *http.Request) {
	id, ok := userIDFromRequest(res, req)
	if !ok {
		return
	}

	request, ok := rt.decodeAndValidateUserRequest(res, req)
	if !ok {
		return
	}

	usr, err := rt.service.UpdateUser(req.Context(), id, request.Name, request.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			writeJSON(res, http.StatusBadRequest, models.ErrorResponse{Error: "Email already exists"})
		case errors.Is(err, service.ErrUserNotFound):
			writeUserNotFound(res)
		default:
			writeServerError(res, "failed to update user", err)
		}
		return
	}

	writeJSON(res, http.StatusOK, usr)
}

// DeleteApiusersid removes a user by id.
func (rt *Router) DeleteApiusersid(res http.ResponseWriter, req *http.Request) {
	id, ok := userIDFromRequest(res, req)
	if !ok {
		return
	}

	_, err := rt.service.DeleteUser(req.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeUserNotFound(res)
			return
		}
		writeServerError(res, "failed to delete user", err)
		return
	}

	writeJSON(res, http.StatusOK, models.MessageResponse{Message: "User deleted successfully"})
}

func (rt *Router) decodeAndValidateUserRequest(
	res http.ResponseWriter,
	req *http.Request,
) (*models.UserRequest, bool) {
	var request models.UserRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		writeJSON(res, http.StatusBadRequest, models.ValidationErrorResponse{
			Errors: []models.FieldError{
				{Field: "body", Message: "Malformed JSON body"},
			},
		})
		return nil, false
	}

	if err := rt.validate.Struct(request); err != nil {
		writeJSON(res, http.StatusBadRequest, models.ValidationErrorResponse{
			Errors: fieldErrorsFromValidation(err),
		})
		return nil, false
	}

	return &request, true
}

func fieldErrorsFromValidation(err error) []models.FieldError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []models.FieldError{{Field: "body", Message: "Invalid request"}}
	}

	messages := map[string]string{
		"Name":  "Name is required",
		"Email": "Invalid email format",
	}

	result := make([]models.FieldError, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		message, known := messages[fieldErr.Field()]
		if !known {
			message = "Invalid value"
		}
		result = append(result, models.FieldError{
			Field:   fieldErr.Field(),
			Message: message,
		})
	}

	return result
}

// userIDFromRequest parses the {id} URL parameter. A non-numeric id cannot
// refer to any user, so it is answered with the uniform 404.
func userIDFromRequest(res http.ResponseWriter, req *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(req, "id"))
	if err != nil {
		writeUserNotFound(res)
		return 0, false
	}

	return id, true
}

func writeUserNotFound(res http.ResponseWriter) {
	writeJSON(res, http.StatusNotFound, models.ErrorResponse{Error: "User not found"})
}

func writeServerError(res http.ResponseWriter, message string, err error) {
	logger.Log.Errorln(message, "error", err)
	writeJSON(res, http.StatusInternalServerError, models.ErrorResponse{Error: "Server error"})
}

func writeJSON(res http.ResponseWriter, statusCode int, payload any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	if err := json.NewEncoder(res).Encode(payload); err != nil {
		logger.Log.Errorln("failed to encode response", "error", err)
	}
}
