package visuals

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ChartStyle carries the presentation choices of a two-cohort chart. It never
// influences any statistic.
type ChartStyle struct {
	FirstLabel  string `json:"first_label"`
	SecondLabel string `json:"second_label"`
	FirstColor  string `json:"first_color"`
	SecondColor string `json:"second_color"`
	// Optional decorative portraits, named relative to the assets directory.
	FirstImage  string `json:"first_image,omitempty"`
	SecondImage string `json:"second_image,omitempty"`
}

// DefaultChartStyle is the generic low/high risk presentation.
func DefaultChartStyle() ChartStyle {
	return ChartStyle{
		FirstLabel:  "Good Drivers",
		SecondLabel: "Bad Drivers",
		FirstColor:  "#2e8b57",
		SecondColor: "#c0392b",
	}
}

// WithLabels overrides the display names, keeping defaults for empty values.
func (s ChartStyle) WithLabels(first, second string) ChartStyle {
	if first != "" {
		s.FirstLabel = first
	}
	if second != "" {
		s.SecondLabel = second
	}
	return s
}

// ResolveImages keeps the portraits that exist under dir. Names must be local
// paths inside dir; anything else, or a missing file, is logged and dropped so
// the chart renders without it. The names themselves are kept, never the
// resolved paths.
func ResolveImages(s ChartStyle, dir string) ChartStyle {
	s.FirstImage = resolveImage(s.FirstImage, dir)
	s.SecondImage = resolveImage(s.SecondImage, dir)
	return s
}

func resolveImage(name, dir string) string {
	if name == "" {
		return ""
	}
	path, err := assetPath(dir, name)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected cohort image")
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		log.Warn().Str("image", name).Msg("Cohort image not found, rendering without it")
		return ""
	}
	return name
}

// assetPath joins a portrait name onto the assets directory, refusing absolute
// names and names that climb out of it.
func assetPath(dir, name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("image %q must be a relative path inside the assets directory", name)
	}
	return filepath.Join(dir, name), nil
}
