package domain

import (
	"slices"
	"strings"
)

// PlaceholderToken is the value shipped in sample env files; it never
// authenticates.
const PlaceholderToken = "your_token_here"

// Parameters carries the generation options shared by the creation endpoints.
// Zero values are omitted from the request body.
type Parameters struct {
	BatchSize   int    `json:"batchSize,omitempty"`
	NumImages   int    `json:"numImages,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Duration    int    `json:"duration,omitempty"`
}

// GenerationRequest is one prompt plus its options. It is passed by value and
// never mutated after submission.
type GenerationRequest struct {
	Prompt     string
	Parameters Parameters
}

// Body returns the JSON-ready creation payload.
func (r GenerationRequest) Body() RequestBody {
	return RequestBody{Prompt: r.Prompt, Parameters: r.Parameters}
}

// RequestBody is the serialized form of a GenerationRequest.
type RequestBody struct {
	Prompt string `json:"prompt"`
	Parameters
}

// ValidateToken rejects empty and placeholder credentials.
func ValidateToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" || token == PlaceholderToken {
		return ErrMissingCredential
	}
	return nil
}

// ValidatePrompt rejects blank prompts.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return Validationf("prompt is required")
	}
	return nil
}

var (
	ImageResolutions  = []string{"1K", "2K", "4K"}
	VideoResolutions  = []string{"720p", "1080p"}
	VideoAspectRatios = []string{"16:9", "9:16", "1:1", "4:3"}
)

const (
	MinNumImages    = 1
	MaxNumImages    = 10
	MinDimension    = 256
	MaxDimension    = 2048
	MinDuration     = 1
	MaxDuration     = 10
	CustomAspect    = "custom"
	DefaultImageRes = "1K"
	DefaultVideoRes = "720p"
)

// ImageParameters builds and validates options for a single image request.
func ImageParameters(numImages int, resolution string) (Parameters, error) {
	if numImages == 0 {
		numImages = 1
	}
	if numImages < MinNumImages || numImages > MaxNumImages {
		return Parameters{}, Validationf("numImages must be between %d and %d", MinNumImages, MaxNumImages)
	}
	if resolution == "" {
		resolution = DefaultImageRes
	}
	if !slices.Contains(ImageResolutions, resolution) {
		return Parameters{}, Validationf("unsupported image resolution %q", resolution)
	}
	return Parameters{BatchSize: 1, NumImages: numImages, Resolution: resolution}, nil
}

// BatchImageParameters builds options shared by every prompt of a batch. When
// aspect is a known preset the preset dimensions win over width and height.
func BatchImageParameters(resolution, aspect string, width, height int) (Parameters, error) {
	if resolution == "" {
		resolution = DefaultImageRes
	}
	if !slices.Contains(ImageResolutions, resolution) {
		return Parameters{}, Validationf("unsupported image resolution %q", resolution)
	}
	if aspect == "" {
		aspect = "1:1"
	}
	if aspect != CustomAspect {
		preset, ok := LookupAspectPreset(aspect)
		if !ok {
			return Parameters{}, Validationf("unsupported aspect ratio %q", aspect)
		}
		width, height = preset.Width, preset.Height
	}
	if width < MinDimension || width > MaxDimension {
		return Parameters{}, Validationf("width must be between %d and %d", MinDimension, MaxDimension)
	}
	if height < MinDimension || height > MaxDimension {
		return Parameters{}, Validationf("height must be between %d and %d", MinDimension, MaxDimension)
	}
	return Parameters{
		BatchSize:  1,
		NumImages:  1,
		Resolution: resolution,
		Width:      width,
		Height:     height,
	}, nil
}

// VideoParameters builds and validates options for a video request.
func VideoParameters(aspect string, duration int, resolution string) (Parameters, error) {
	if aspect == "" {
		aspect = VideoAspectRatios[0]
	}
	if !slices.Contains(VideoAspectRatios, aspect) {
		return Parameters{}, Validationf("unsupported video aspect ratio %q", aspect)
	}
	if duration == 0 {
		duration = 5
	}
	if duration < MinDuration || duration > MaxDuration {
		return Parameters{}, Validationf("duration must be between %d and %d seconds", MinDuration, MaxDuration)
	}
	if resolution == "" {
		resolution = DefaultVideoRes
	}
	if !slices.Contains(VideoResolutions, resolution) {
		return Parameters{}, Validationf("unsupported video resolution %q", resolution)
	}
	return Parameters{AspectRatio: aspect, Duration: duration, Resolution: resolution}, nil
}

// AspectPreset maps a named ratio to pixel dimensions.
type AspectPreset struct {
	Ratio  string `json:"ratio"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var aspectPresets = []AspectPreset{
	{Ratio: "1:1", Label: "Square", Width: 1024, Height: 1024},
	{Ratio: "4:3", Label: "Standard", Width: 1024, Height: 768},
	{Ratio: "16:9", Label: "Widescreen", Width: 1920, Height: 1080},
	{Ratio: "9:16", Label: "Vertical", Width: 1080, Height: 1920},
}

// AspectPresets returns a copy of the batch aspect ratio presets.
func AspectPresets() []AspectPreset {
	return slices.Clone(aspectPresets)
}

// LookupAspectPreset finds a preset by ratio.
func LookupAspectPreset(ratio string) (AspectPreset, bool) {
	for _, p := range aspectPresets {
		if p.Ratio == ratio {
			return p, true
		}
	}
	return AspectPreset{}, false
}
