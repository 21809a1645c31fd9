package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"brandkit/internal/bundle"
	"brandkit/internal/domain"
	"brandkit/pkg/zip"
)

// ExportCampaign writes every successful asset and the zip bundle to the
// file store under exports/<timestamp>.
func (a *App) ExportCampaign(w http.ResponseWriter, r *http.Request) {
	if a.Files == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "file storage is not configured")
		return
	}
	at := a.now()
	assets, err := bundle.Collect(a.Store.Snapshot(), at)
	if errors.Is(err, domain.ErrNothingToBundle) {
		a.error(w, http.StatusNotFound, "not_found", "no successful assets to export")
		return
	}
	if err != nil {
		a.log(r).Error().Err(err).Msg("exports: collect failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to collect assets")
		return
	}
	archive, err := zip.ArchiveAssets(assets, at)
	if err != nil {
		a.log(r).Error().Err(err).Msg("exports: archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	assets = append(assets, zip.Asset{Filename: bundle.ArchiveName(at), MIME: "application/zip", Data: archive})
	dir := "exports/" + at.UTC().Format("20060102-150405")
	keys, err := a.Files.Export(r.Context(), dir, assets)
	if err != nil {
		a.log(r).Error().Err(err).Msg("exports: write failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to write export")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"keys": keys})
}

// ListRuns returns recent run history.
func (a *App) ListRuns(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "run history requires DATABASE_URL")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := a.History.ListRuns(r.Context(), limit)
	if err != nil {
		a.log(r).Error().Err(err).Msg("runs: list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list runs")
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": runs})
}
