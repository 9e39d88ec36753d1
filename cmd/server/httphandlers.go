package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"example.com/postapi/internal/apperr"
	"example.com/postapi/internal/middleware"
	"example.com/postapi/internal/models"
	"example.com/postapi/internal/response"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type addPostRequest struct {
	Caption string `json:"caption"`
	PostURL string `json:"postUrl"`
	Created string `json:"created"`
}

type addPostResponse struct {
	Message string      `json:"message"`
	Post    models.Post `json:"post"`
}

type deletePostRequest struct {
	PostID string `json:"postId"`
}

// decode reads a JSON body into v, writing 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, module string, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.log.Info(module, "Invalid request body")
		response.Error(w, apperr.Wrap(apperr.InvalidInput, "Invalid request body", err))
		return false
	}
	return true
}

// fail logs server-side failures and writes the error body.
func (s *Server) fail(w http.ResponseWriter, module string, err error) {
	if apperr.From(err).Status() >= http.StatusInternalServerError {
		s.log.Error(module, "Request failed", err)
	}
	response.Error(w, err)
}

// registerHandler creates an account.
// Expects JSON body: {"username": "...", "password": "..."}
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if !s.decode(w, r, "http/register", &body) {
		return
	}

	user, err := s.accounts.Register(r.Context(), body.Username, body.Password)
	if err != nil {
		s.fail(w, "http/register", err)
		return
	}

	response.JSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully!",
		UserID:  user.ID,
	})
}

// loginHandler exchanges credentials for a token.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if !s.decode(w, r, "http/login", &body) {
		return
	}

	token, err := s.accounts.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		s.fail(w, "http/login", err)
		return
	}

	response.JSON(w, http.StatusOK, loginResponse{Token: token})
}

// addPostHandler stores a post owned by the authenticated user.
// Expects JSON body: {"caption": "...", "postUrl": "...", "created": "..."}
func (s *Server) addPostHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, apperr.New(apperr.MissingCredential, "Token is missing!"))
		return
	}

	var body addPostRequest
	if !s.decode(w, r, "http/posts", &body) {
		return
	}

	post, err := s.posts.CreatePost(r.Context(), user, body.Caption, body.PostURL, body.Created)
	if err != nil {
		s.fail(w, "http/posts", err)
		return
	}

	response.JSON(w, http.StatusCreated, addPostResponse{
		Message: "Post added successfully!",
		Post:    post,
	})
}

func (s *Server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, apperr.New(apperr.MissingCredential, "Token is missing!"))
		return
	}

	if err := s.accounts.DeleteSelf(r.Context(), user); err != nil {
		s.fail(w, "http/users", err)
		return
	}

	response.Message(w, http.StatusOK, "User successfully deleted!")
}

// deletePostHandler removes a post owned by the authenticated user.
// Expects JSON body: {"postId": "..."}
func (s *Server) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, apperr.New(apperr.MissingCredential, "Token is missing!"))
		return
	}

	var body deletePostRequest
	if !s.decode(w, r, "http/posts", &body) {
		return
	}
	if body.PostID == "" {
		response.Error(w, apperr.New(apperr.InvalidInput, "Post id is required!"))
		return
	}

	if err := s.posts.DeletePost(r.Context(), user, body.PostID); err != nil {
		s.fail(w, "http/posts", err)
		return
	}

	response.Message(w, http.StatusOK, "Post successfully deleted!")
}

type activityResponse struct {
	Activity []models.Event `json:"activity"`
}

// activityHandler returns the caller's recorded events, newest first.
// Query parameters: ?limit=50
func (s *Server) activityHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, apperr.New(apperr.MissingCredential, "Token is missing!"))
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			response.Error(w, apperr.New(apperr.InvalidInput, "Invalid limit"))
			return
		}
		limit = l
	}

	events, err := s.accounts.Activity(r.Context(), user, limit)
	if err != nil {
		s.fail(w, "http/activity", err)
		return
	}

	response.JSON(w, http.StatusOK, activityResponse{Activity: events})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
