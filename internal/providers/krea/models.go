package krea

import (
	"slices"

	"mediagen/internal/domain"
)

// Endpoint describes one creation route of the generation API.
type Endpoint struct {
	Key         string           `json:"key"`
	Name        string           `json:"name"`
	Provider    string           `json:"provider"`
	Media       domain.MediaKind `json:"media"`
	Path        string           `json:"path"`
	MaxAttempts int              `json:"max_attempts"`
}

const (
	ImageMaxAttempts = 60
	VideoMaxAttempts = 120

	DefaultImageModel = "nano-banana-pro"
	DefaultVideoModel = "seedance-1.0-pro-fast"
)

var catalog = []Endpoint{
	{
		Key:         "nano-banana-pro",
		Name:        "Nano Banana Pro",
		Provider:    "google",
		Media:       domain.MediaKindImage,
		Path:        "generate/image/google/nano-banana-pro",
		MaxAttempts: ImageMaxAttempts,
	},
	{
		Key:         "seedance-1.0-pro-fast",
		Name:        "Seedance 1.0 Pro Fast",
		Provider:    "bytedance",
		Media:       domain.MediaKindVideo,
		Path:        "generate/video/bytedance/seedance-1.0-pro-fast",
		MaxAttempts: VideoMaxAttempts,
	},
	{
		Key:         "kling-2.5",
		Name:        "Kling 2.5",
		Provider:    "kling",
		Media:       domain.MediaKindVideo,
		Path:        "generate/video/kling/kling-2.5",
		MaxAttempts: VideoMaxAttempts,
	},
}

// Models returns the endpoint catalog, optionally filtered by media kind.
func Models(media domain.MediaKind) []Endpoint {
	if media == "" {
		return slices.Clone(catalog)
	}
	var out []Endpoint
	for _, e := range catalog {
		if e.Media == media {
			out = append(out, e)
		}
	}
	return out
}

// Lookup resolves a model key for the given media kind. An empty key selects
// the default model for that kind.
func Lookup(media domain.MediaKind, key string) (Endpoint, error) {
	if key == "" {
		switch media {
		case domain.MediaKindVideo:
			key = DefaultVideoModel
		default:
			key = DefaultImageModel
		}
	}
	for _, e := range catalog {
		if e.Key == key && e.Media == media {
			return e, nil
		}
	}
	return Endpoint{}, domain.Validationf("unknown %s model %q", media, key)
}
