// Package bundle turns settled asset states into downloadable files named
// <platform>-<timestamp>.<ext>.
package bundle

import (
	"fmt"
	"time"

	"brandkit/internal/domain"
	"brandkit/pkg/zip"
)

const timestampLayout = "20060102-150405"

// Filename names one exported asset.
func Filename(platform domain.PlatformKey, mime string, at time.Time) string {
	return fmt.Sprintf("%s-%s%s", platform, at.UTC().Format(timestampLayout), domain.ExtensionForMIME(mime))
}

// ArchiveName names the zip holding a whole campaign.
func ArchiveName(at time.Time) string {
	return fmt.Sprintf("brandkit-%s.zip", at.UTC().Format(timestampLayout))
}

// Collect returns every success asset in table order. Other statuses are
// skipped; ErrNothingToBundle is returned when none succeeded.
func Collect(states []domain.AssetState, at time.Time) ([]zip.Asset, error) {
	var assets []zip.Asset
	for _, st := range states {
		if st.Status != domain.StatusSuccess {
			continue
		}
		img, ok := st.Image()
		if !ok {
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: Filename(st.Platform, img.MimeType, at),
			MIME:     img.MimeType,
			Data:     img.Data,
		})
	}
	if len(assets) == 0 {
		return nil, domain.ErrNothingToBundle
	}
	return assets, nil
}

// Archive zips every success asset.
func Archive(states []domain.AssetState, at time.Time) ([]byte, string, error) {
	assets, err := Collect(states, at)
	if err != nil {
		return nil, "", err
	}
	data, err := zip.ArchiveAssets(assets, at)
	if err != nil {
		return nil, "", err
	}
	return data, ArchiveName(at), nil
}
