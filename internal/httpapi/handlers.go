package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/bizimage/internal/catalog"
	"github.com/digkill/bizimage/internal/models"
	"github.com/digkill/bizimage/internal/service"
)

const insufficientCreditsMessage = "Not enough credits. Please top up to continue."

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":        catalog.AppName,
		"headline":    "AI Product Photography in Seconds.",
		"description": "Upload your product or type a prompt, and get commercial-grade business images instantly.",
		"freeCredits": models.DefaultAccount().Credits,
		"login":       "/login",
		"dashboard":   "/dashboard",
	})
}

// handleLogin performs no authentication.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.dashboard.Logout()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dashboard.Snapshot())
}

type tabRequest struct {
	Tab string `json:"tab" validate:"required,oneof=text product gallery credits"`
}

func (s *Server) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	var req tabRequest
	if err := s.decode(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	tab, err := models.ParseTab(req.Tab)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	s.dashboard.SelectTab(tab)
	s.writeJSON(w, http.StatusOK, s.dashboard.Snapshot())
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleTextPrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := s.decode(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	s.dashboard.SetTextPrompt(req.Prompt)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, catalog.Scenes())
}

type packageView struct {
	models.CreditPackage
	Price string `json:"price"`
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs := catalog.Packages()
	out := make([]packageView, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, packageView{CreditPackage: p, Price: p.Price()})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if r.ContentLength != 0 {
		if err := s.decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			s.badRequest(w, err.Error())
			return
		}
	}
	res, err := s.dashboard.GenerateText(r.Context(), req.Prompt)
	s.writeGeneration(w, res, err)
}

func (s *Server) handleGenerateScene(w http.ResponseWriter, r *http.Request) {
	res, err := s.dashboard.GenerateScene(r.Context())
	s.writeGeneration(w, res, err)
}

func (s *Server) writeGeneration(w http.ResponseWriter, res service.GenerationResult, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	if res.Status == service.GenerationRedirected {
		s.writeJSON(w, http.StatusPaymentRequired, errorResponse{
			Error:    insufficientCreditsMessage,
			Redirect: string(models.TabCredits),
		})
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

type productImageRequest struct {
	DataURI string `json:"dataUri" validate:"required"`
}

// handleProductImage accepts either a multipart "image" file or a JSON data URI.
func (s *Server) handleProductImage(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+1<<20)
		if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
			s.badRequest(w, "image upload is too large or malformed")
			return
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			s.badRequest(w, "image file is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadBytes+1))
		if err != nil {
			s.internalError(w, err)
			return
		}
		if int64(len(data)) > s.opts.MaxUploadBytes {
			s.badRequest(w, "image upload is too large")
			return
		}
		if err := s.dashboard.UploadProductImage(data); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.dashboard.Snapshot())
		return
	}

	var req productImageRequest
	if err := s.decode(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if err := s.dashboard.SetProductImage(req.DataURI); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.dashboard.Snapshot())
}

type productSceneRequest struct {
	Scene  string  `json:"scene" validate:"required,oneof=studio desk outdoor soft dark"`
	Prompt *string `json:"prompt"`
}

func (s *Server) handleProductScene(w http.ResponseWriter, r *http.Request) {
	var req productSceneRequest
	if err := s.decode(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	preset, err := models.ParseScenePreset(req.Scene)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if err := s.dashboard.SelectScene(preset); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Prompt != nil {
		s.dashboard.SetProductPrompt(*req.Prompt)
	}
	s.writeJSON(w, http.StatusOK, s.dashboard.Snapshot())
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var kind *models.ImageKind
	if raw := strings.TrimSpace(q.Get("kind")); raw != "" {
		parsed, err := models.ParseImageKind(raw)
		if err != nil {
			s.badRequest(w, err.Error())
			return
		}
		kind = &parsed
	}

	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	s.writeJSON(w, http.StatusOK, s.dashboard.Gallery(kind, limit))
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		s.badRequest(w, "image id is required")
		return
	}
	if !confirmed(r.URL.Query().Get("confirm")) {
		s.confirmationRequired(w, service.DeleteConfirmPrompt)
		return
	}
	s.writeJSON(w, http.StatusOK, s.dashboard.DeleteImage(r.Context(), id, service.Preconfirmed(true)))
}

type purchaseRequest struct {
	Package string `json:"package" validate:"required"`
	Confirm bool   `json:"confirm"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := s.decode(w, r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	pkg, ok := catalog.Package(req.Package)
	if !ok {
		s.badRequest(w, "unknown credit package")
		return
	}
	if !req.Confirm {
		s.confirmationRequired(w, service.PurchasePrompt(pkg))
		return
	}

	res, err := s.dashboard.Purchase(r.Context(), pkg.ID, service.Preconfirmed(true))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func confirmed(raw string) bool {
	ok, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && ok
}
