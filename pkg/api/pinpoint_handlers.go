package api

import (
	"net/http"

	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/httputil"
	"github.com/platinummonkey/gvserver/pkg/middleware"
	"github.com/platinummonkey/gvserver/pkg/storage"
)

// createPinpoint handles POST /pinpoints
func (s *Server) createPinpoint(w http.ResponseWriter, r *http.Request) {
	perms := middleware.GetPermissions(r)

	var req CreatePinpointRequest
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
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.store.CreatePinpoint(r.Context(), req.Username, storage.NewPinpoint{
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Description: req.Description,
		Attachment:  req.Attachment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, CreatePinpointResponse{PinpointID: id})
}

func validateCoordinates(latitude, longitude *float64) error {
	if latitude == nil || longitude == nil {
		return auth.NewValidationError("latitude and longitude are required")
	}
	if *latitude < -90 || *latitude > 90 {
		return auth.NewValidationError("latitude must be between -90 and 90")
	}
	if *longitude < -180 || *longitude > 180 {
		return auth.NewValidationError("longitude must be between -180 and 180")
	}
	return nil
}

// listPinpoints handles GET /pinpoints[?username=]. Other users' entries are censored.
func (s *Server) listPinpoints(w http.ResponseWriter, r *http.Request) {
	perms := middleware.GetPermissions(r)

	pinpoints, err := s.store.ListPinpoints(r.Context(), httputil.ParseQueryString(r, "username", ""))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]PinpointResponse, 0, len(pinpoints))
	for _, p := range pinpoints {
		views = append(views, pinpointView(p, !perms.CanActAs(p.Username)))
	}
	httputil.WriteSuccess(w, views)
}

// deletePinpoints handles DELETE /pinpoints
func (s *Server) deletePinpoints(w http.ResponseWriter, r *http.Request) {
	perms := middleware.GetPermissions(r)

	var req DeletePinpointsRequest
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

	deleted, err := s.store.DeletePinpoints(r.Context(), req.Username, req.PinpointID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, DeletePinpointsResponse{Deleted: deleted})
}
