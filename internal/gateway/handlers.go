package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apiclient"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/session"
)

// Handler holds gateway route handlers.
type Handler struct {
	svc    *Service
	sess   *session.Manager
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service, sess *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, sess: sess, logger: logger}
}

// writeReadError maps a degraded-and-still-failing read to a response.
func (h *Handler) writeReadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.logger.Error("read failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	writeError(w, http.StatusBadGateway, "content unavailable")
}

// serveRead writes a resolved read or its error.
func (h *Handler) serveRead(w http.ResponseWriter, r *http.Request, v any, src Source, err error) {
	if err != nil {
		h.writeReadError(w, r, err)
		return
	}
	writeData(w, src, v)
}

func (h *Handler) HeroSlides(w http.ResponseWriter, r *http.Request) {
	v, src, err := h.svc.HeroSlides(r.Context())
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	v, src, err := h.svc.About(r.Context())
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) ImpactStats(w http.ResponseWriter, r *http.Request) {
	v, src, err := h.svc.ImpactStats(r.Context())
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) Footer(w http.ResponseWriter, r *http.Request) {
	v, src, err := h.svc.Footer(r.Context())
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	v, src, err := h.svc.Team(r.Context())
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) TeamMember(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return
	}
	v, src, err := h.svc.TeamMember(r.Context(), slug)
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	v, src, err := h.svc.Projects(r.Context())
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	v, src, err := h.svc.Services(r.Context())
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	v, src, err := h.svc.Clients(r.Context())
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) Articles(w http.ResponseWriter, r *http.Request) {
	publishedOnly := r.URL.Query().Get("published") == "true"
	v, src, err := h.svc.Articles(r.Context(), publishedOnly)
	h.serveRead(w, r, v, src, err)
}

func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	v, src, err := h.svc.Locations(r.Context())
	h.serveRead(w, r, v, src, err)
}

// SubmitContact handles POST /api/contact. Submissions pass straight
// through; they are never cached.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var sub content.ContactSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.SubmitContact(r.Context(), sub)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": out})
}

// Login handles POST /admin/api/login: it authenticates upstream, persists
// the credential, and hands back the remembered return path so the caller
// lands where the expired session interrupted it.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	cred, err := h.svc.Client().Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.writeUpstreamError(w, r, err)
		return
	}

	returnPath := h.sess.ConsumeReturnPath()
	if returnPath == "" {
		returnPath = session.AdminPrefix
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"user":       cred.User,
		"returnPath": returnPath,
	})
}

// Logout handles POST /admin/api/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.Logout(); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Session handles GET /admin/api/session: who is signed in, if anyone.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	cred, ok := h.sess.Current()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"authenticated": true,
		"user":          cred.User,
	})
}

// writeUpstreamError maps an upstream failure on a write/admin path. A 401
// has already run the unauthorized side effect; the response points the
// caller at the login route.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperr.ErrUnauthorized) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success":  false,
			"message":  "session expired",
			"redirect": session.LoginRoute,
		})
		return
	}
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if code := apperr.StatusCode(err); code >= 400 && code < 500 {
		writeError(w, code, "upstream rejected request")
		return
	}
	h.logger.Error("upstream request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	writeError(w, http.StatusBadGateway, "upstream unavailable")
}

// Admin proxy handlers. Each annotates the context with the request route
// so an upstream 401 remembers where to return after re-login.

func (h *Handler) adminCtx(r *http.Request) *http.Request {
	return r.WithContext(apiclient.WithRoute(r.Context(), r.URL.Path))
}

func (h *Handler) ContactSubmissions(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	subs, err := h.svc.ContactSubmissions(r.Context())
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": subs})
}

func (h *Handler) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var tm content.TeamMember
	if err := json.NewDecoder(r.Body).Decode(&tm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.CreateTeamMember(r.Context(), tm)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": out})
}

func (h *Handler) UpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var tm content.TeamMember
	if err := json.NewDecoder(r.Body).Decode(&tm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.UpdateTeamMember(r.Context(), id, tm)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

func (h *Handler) DeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.DeleteTeamMember(r.Context(), id); err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) UpdateAbout(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var ac content.AboutContent
	if err := json.NewDecoder(r.Body).Decode(&ac); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.UpdateAbout(r.Context(), ac)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var a content.Article
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.CreateArticle(r.Context(), a)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": out})
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var a content.Article
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.UpdateArticle(r.Context(), id, a)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.DeleteArticle(r.Context(), id); err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var loc content.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.CreateLocation(r.Context(), loc)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": out})
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var loc content.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.UpdateLocation(r.Context(), id, loc)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.DeleteLocation(r.Context(), id); err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var cl content.Client
	if err := json.NewDecoder(r.Body).Decode(&cl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.CreateClient(r.Context(), cl)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": out})
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var cl content.Client
	if err := json.NewDecoder(r.Body).Decode(&cl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.UpdateClient(r.Context(), id, cl)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) ReplaceHeroSlides(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var slides []content.HeroSlide
	if err := json.NewDecoder(r.Body).Decode(&slides); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.ReplaceHeroSlides(r.Context(), slides)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

func (h *Handler) ReplaceImpactStats(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var stats []content.ImpactStat
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.ReplaceImpactStats(r.Context(), stats)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

func (h *Handler) UpdateFooter(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var fs content.FooterSettings
	if err := json.NewDecoder(r.Body).Decode(&fs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	out, err := h.svc.UpdateFooter(r.Context(), fs)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

func (h *Handler) UploadTeamPhoto(w http.ResponseWriter, r *http.Request) {
	r = h.adminCtx(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, hdr, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	out, uerr := h.svc.UploadTeamPhoto(r.Context(), id, hdr.Filename, io.Reader(file))
	if uerr != nil {
		h.writeUpstreamError(w, r, uerr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"entries": h.svc.Cache().Len(),
	})
}
