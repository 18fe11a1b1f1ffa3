package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/httputil"
	"github.com/platinummonkey/gvserver/pkg/middleware"
	"github.com/platinummonkey/gvserver/pkg/observability"
	"github.com/platinummonkey/gvserver/pkg/storage"
)

// getUser handles GET /users?username=|user_id=|email=
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	perms := middleware.GetPermissions(r)

	userID, err := httputil.ParseQueryUUID(r, "user_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	filter := storage.UserFilter{
		Username: httputil.ParseQueryString(r, "username", ""),
		Email:    httputil.ParseQueryString(r, "email", ""),
	}
	// one key only, in the order username, user_id, email
	switch {
	case filter.Username != "":
		filter.Email = ""
	case userID != nil:
		filter.ID = userID
		filter.Email = ""
	}
	if filter.Empty() {
		httputil.WriteBadRequest(w, "one of username, user_id or email is required")
		return
	}

	user, err := s.store.GetUser(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if perms.CanActAs(user.Username) {
		httputil.WriteSuccess(w, fullUser(user))
		return
	}
	httputil.WriteSuccess(w, redactedUser(user, filter.Email != ""))
}

// updateUser handles PUT /users/{user_id}
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perms := middleware.GetPermissions(r)

	id, ok := httputil.ParsePathUUIDOrError(w, r, "user_id")
	if !ok {
		return
	}

	current, err := s.store.GetUser(ctx, storage.UserFilter{ID: &id})
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteBadRequest(w, "unknown user")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := perms.Authorize(current.Username); err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.empty() {
		httputil.WriteBadRequest(w, "nothing to update")
		return
	}

	update, renamed, err := s.buildUserUpdate(r, current, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.UpdateUser(ctx, id, update); err != nil {
		writeError(w, r, err)
		return
	}

	logger := observability.FromContext(ctx).WithField("user_id", id.String())
	if !renamed {
		logger.Info("user updated")
		httputil.WriteSuccess(w, StatusResponse{Status: "updated"})
		return
	}

	// the old token names a user that no longer exists
	token, err := s.tokens.Issue(*update.Username)
	if err != nil {
		writeError(w, r, auth.Unexpected("issue token", err))
		return
	}
	logger.WithField("username", *update.Username).Info("user renamed")
	httputil.WriteSuccess(w, TokenResponse{JWT: token})
}

// buildUserUpdate validates req against the current record. renamed reports
// whether the username actually changes.
func (s *Server) buildUserUpdate(r *http.Request, current *storage.User, req UpdateUserRequest) (storage.UserUpdate, bool, error) {
	update := storage.UserUpdate{
		ContentsDescription: req.ContentsDescription,
		ContentsAttachment:  req.ContentsAttachment,
	}
	renamed := false

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return update, false, auth.NewValidationError("username must not be empty")
		}
		// a padded copy of the current name is not a rename
		if username != current.Username {
			taken, err := s.store.UsernameTaken(r.Context(), username)
			if err != nil {
				return update, false, err
			}
			if taken {
				return update, false, auth.NewValidationError("username is already taken")
			}
			update.Username = &username
			renamed = true
		}
	}

	if req.Email != nil {
		if err := validateEmail(*req.Email); err != nil {
			return update, false, err
		}
		update.Email = req.Email
	}

	if req.Password != nil {
		if *req.Password == "" {
			return update, false, auth.NewValidationError("password must not be empty")
		}
		salt, err := auth.GenerateSalt()
		if err != nil {
			return update, false, auth.Unexpected("generate salt", err)
		}
		hash, err := s.hashPool.Hash(r.Context(), *req.Password, salt)
		if err != nil {
			return update, false, auth.Unexpected("hash password", err)
		}
		update.PasswordHash = &hash
		update.Salt = &salt
	}

	if update.Empty() {
		return update, false, auth.NewValidationError("nothing to update")
	}
	return update, renamed, nil
}

// deleteUser handles DELETE /users
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	perms := middleware.GetPermissions(r)

	var req DeleteUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Username, "username") {
		return
	}
	if err := perms.Authorize(req.Username); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.DeleteUser(r.Context(), req.Username); err != nil {
		writeError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).WithField("username", req.Username).Info("user deleted")
	httputil.WriteSuccess(w, StatusResponse{Status: "deleted"})
}
