package portal_api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/apperr"
	"github.com/BearBump/ParcelPortal/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *PortalAPI) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, apperr.ErrUnauthorized) {
		slog.Info("admin login rejected", "email", req.Email)
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Invalid credentials"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   a.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   sess.Token,
		"user":    sess.Admin,
	})
}

func (a *PortalAPI) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *PortalAPI) track(w http.ResponseWriter, r *http.Request) {
	v, err := a.tracking.Track(r.Context(), chi.URLParam(r, "trackingCode"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trackingData": v})
}

// listStatuses feeds the admin status picker.
func (a *PortalAPI) listStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"statuses": models.Statuses()})
}

func (a *PortalAPI) listPackages(w http.ResponseWriter, r *http.Request) {
	out, err := a.packages.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": out})
}

func (a *PortalAPI) createPackage(w http.ResponseWriter, r *http.Request) {
	var in models.PackageCreateInput
	if !decodeBody(w, r, &in) {
		return
	}
	res, err := a.packages.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logMutation(r, "package created", res.Package.TrackingCode)
	writeJSON(w, http.StatusOK, res)
}

func (a *PortalAPI) updatePackage(w http.ResponseWriter, r *http.Request) {
	var upd models.PackageUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	res, err := a.packages.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logMutation(r, "package updated", res.Package.TrackingCode)
	writeJSON(w, http.StatusOK, res)
}

func (a *PortalAPI) deletePackage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.packages.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	logMutation(r, "package deleted", id)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Package deleted successfully"})
}

func logMutation(r *http.Request, msg, ref string) {
	var by string
	if admin, ok := AdminFromContext(r.Context()); ok {
		by = admin.Email
	}
	slog.Info(msg, "ref", ref, "admin", by)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return false
	}
	return true
}
