package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"brandkit/internal/bundle"
	"brandkit/internal/domain"
	"brandkit/internal/middleware"
	"brandkit/internal/pipeline"
)

const maxCampaignBody = 12 << 20

type referenceImagePayload struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type campaignRequest struct {
	Context        string                 `json:"context"`
	ReferenceImage *referenceImagePayload `json:"reference_image,omitempty"`
	Locale         string                 `json:"locale,omitempty"`
}

type campaignAccepted struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
	Locale string `json:"locale"`
}

type campaignState struct {
	Running bool                `json:"running"`
	Assets  []domain.AssetState `json:"assets"`
}

// Platforms lists the static platform table in generation order.
func (a *App) Platforms(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": domain.Platforms()})
}

// CreateCampaign validates the concept and starts a full run in the background.
func (a *App) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCampaignBody))
	if err := dec.Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	var ref *domain.EncodedImage
	if req.ReferenceImage != nil && strings.TrimSpace(req.ReferenceImage.Data) != "" {
		img, err := domain.ParseDataURI(req.ReferenceImage.Data, req.ReferenceImage.MimeType)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "reference_image is not valid base64 image data")
			return
		}
		ref = &img
	}
	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}

	runID, err := a.Pipeline.Launch(a.BaseCtx, pipeline.Input{Context: req.Context, Reference: ref, Locale: locale})
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", "context or reference_image is required")
		return
	case errors.Is(err, domain.ErrRunInProgress):
		a.error(w, http.StatusConflict, "run_in_progress", "a generation run is already in progress")
		return
	case err != nil:
		a.log(r).Error().Err(err).Msg("campaigns: launch failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
		return
	}
	a.log(r).Info().Str("run_id", runID).Bool("has_reference", ref != nil).Str("locale", locale).Msg("campaigns: run started")
	a.json(w, http.StatusAccepted, campaignAccepted{RunID: runID, Status: "running", Locale: locale})
}

// CancelCampaign stops the run in progress.
func (a *App) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	if !a.Pipeline.Cancel() {
		a.error(w, http.StatusConflict, "not_running", "no generation run in progress")
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// CampaignState returns a snapshot of every platform.
func (a *App) CampaignState(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, campaignState{Running: a.Pipeline.Running(), Assets: a.Store.Snapshot()})
}

// Regenerate re-renders one platform with its stored prompt.
func (a *App) Regenerate(w http.ResponseWriter, r *http.Request) {
	key, ok := a.platformParam(w, r)
	if !ok {
		return
	}
	started, err := a.Pipeline.LaunchRegenerate(a.BaseCtx, key)
	switch {
	case errors.Is(err, domain.ErrPlatformBusy):
		a.error(w, http.StatusConflict, "busy", "platform is already rendering")
		return
	case errors.Is(err, domain.ErrRunInProgress):
		a.error(w, http.StatusConflict, "run_in_progress", "a campaign run is in progress")
		return
	case errors.Is(err, domain.ErrUnknownPlatform):
		a.error(w, http.StatusNotFound, "not_found", "unknown platform")
		return
	case err != nil:
		a.log(r).Error().Err(err).Str("platform", string(key)).Msg("campaigns: regenerate failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start regeneration")
		return
	case !started:
		w.WriteHeader(http.StatusNoContent)
		return
	}
	rec, _ := a.Store.Get(key)
	a.json(w, http.StatusAccepted, rec)
}

// PlatformImage streams the decoded image of a successful platform.
func (a *App) PlatformImage(w http.ResponseWriter, r *http.Request) {
	key, ok := a.platformParam(w, r)
	if !ok {
		return
	}
	rec, _ := a.Store.Get(key)
	img, ok := rec.Image()
	if rec.Status != domain.StatusSuccess || !ok {
		a.error(w, http.StatusNotFound, "not_found", "no image for platform")
		return
	}
	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", bundle.Filename(key, img.MimeType, rec.UpdatedAt)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

// Bundle zips every successful asset.
func (a *App) Bundle(w http.ResponseWriter, r *http.Request) {
	data, name, err := bundle.Archive(a.Store.Snapshot(), a.now())
	if errors.Is(err, domain.ErrNothingToBundle) {
		a.error(w, http.StatusNotFound, "not_found", "no successful assets to bundle")
		return
	}
	if err != nil {
		a.log(r).Error().Err(err).Msg("campaigns: bundle failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *App) platformParam(w http.ResponseWriter, r *http.Request) (domain.PlatformKey, bool) {
	key, err := domain.ParsePlatformKey(chi.URLParam(r, "platform"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "unknown platform")
		return "", false
	}
	return key, true
}
