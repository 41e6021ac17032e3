package handlers

import (
	"net/http"

	"mediagen/internal/domain"
	"mediagen/internal/jobs"
	"mediagen/internal/providers/krea"
)

// Models lists the endpoint catalog, optionally filtered by ?media=.
func (a *App) Models(w http.ResponseWriter, r *http.Request) {
	media := domain.MediaKind(r.URL.Query().Get("media"))
	switch media {
	case "", domain.MediaKindImage, domain.MediaKindVideo:
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown media kind")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"models": krea.Models(media)})
}

// Presets lists the batch aspect ratio presets and parameter ranges.
func (a *App) Presets(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"aspect_ratios":       domain.AspectPresets(),
		"image_resolutions":   domain.ImageResolutions,
		"video_resolutions":   domain.VideoResolutions,
		"video_aspect_ratios": domain.VideoAspectRatios,
		"num_images":          map[string]int{"min": domain.MinNumImages, "max": domain.MaxNumImages},
		"dimension":           map[string]int{"min": domain.MinDimension, "max": domain.MaxDimension},
		"duration":            map[string]int{"min": domain.MinDuration, "max": domain.MaxDuration},
	})
}

type promptCountRequest struct {
	Prompts   string `json:"prompts"`
	Delimiter string `json:"delimiter"`
}

// CountPrompts reports how many prompts a list splits into.
func (a *App) CountPrompts(w http.ResponseWriter, r *http.Request) {
	var req promptCountRequest
	if !a.decode(w, r, &req) {
		return
	}
	prompts := jobs.SplitPrompts(req.Prompts, req.Delimiter)
	a.json(w, http.StatusOK, map[string]any{"count": len(prompts), "prompts": prompts})
}
