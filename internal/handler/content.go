package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/middleware"
	"github.com/pixelcraft/internal/model"
	"github.com/pixelcraft/internal/repository"
)

// ContentHandler — редактируемые секции сайта (контакты, соцсети, SEO-тексты).
type ContentHandler struct {
	repo     *repository.ContentRepository
	cacheTTL time.Duration
}

func NewContentHandler(repo *repository.ContentRepository, cacheTTL time.Duration) *ContentHandler {
	return &ContentHandler{repo: repo, cacheTTL: cacheTTL}
}

// Get отдаёт секцию контента. Публичный; пустая секция отдаётся как {}.
// GET /api/content/{section}
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	if !model.KnownContentSection(section) {
		writeError(w, http.StatusNotFound, "unknown content section")
		return
	}

	raw, err := h.repo.Get(r.Context(), section)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			raw = []byte("{}")
		} else {
			logger.Errorf("content get %s: %v", section, err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if h.cacheTTL > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheTTL.Seconds())))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// validateSection проверяет, что тело — валидный JSON нужной формы,
// и возвращает его в каноническом виде.
func validateSection(section string, body []byte) ([]byte, error) {
	dec := func(v any) ([]byte, error) {
		d := json.NewDecoder(bytes.NewReader(body))
		d.DisallowUnknownFields()
		if err := d.Decode(v); err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	switch section {
	case model.ContentSectionContact:
		return dec(&model.ContactInfo{})
	case model.ContentSectionSocial:
		return dec(&model.SocialLinks{})
	case model.ContentSectionSeo:
		return dec(&model.SeoText{})
	default:
		return nil, fmt.Errorf("unknown section %q", section)
	}
}

// Set обновляет секцию контента.
// PUT /api/admin/content/{section}
func (h *ContentHandler) Set(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	if !model.KnownContentSection(section) {
		writeErrResult(w, http.StatusNotFound, "unknown content section")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		writeErrResult(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	canonical, err := validateSection(section, body)
	if err != nil {
		writeErrResult(w, http.StatusBadRequest, "invalid content payload: "+err.Error())
		return
	}

	updatedBy := middleware.GetAdminEmail(r.Context())
	if err := h.repo.Set(r.Context(), section, canonical, updatedBy); err != nil {
		logger.Errorf("content set %s: %v", section, err)
		writeErrResult(w, http.StatusInternalServerError, "internal server error")
		return
	}
	logger.Infof("content section %s updated by %s", section, updatedBy)
	writeOK(w, true)
}
