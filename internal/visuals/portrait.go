package visuals

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// MaxPortraitBytes caps the size of an embedded portrait.
const MaxPortraitBytes = 1 << 20

// Portrait is a cohort image read from the assets directory.
type Portrait struct {
	Label    string
	Color    string
	MIMEType string
	Data     []byte
}

// DataURI embeds the image so a standalone page can show it.
func (p Portrait) DataURI() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// LoadPortraits reads the portraits named by the style, first cohort first.
// Files that are unreadable, too large or not images are logged and skipped.
func LoadPortraits(s ChartStyle, dir string) []Portrait {
	var out []Portrait
	for _, c := range []struct{ label, color, name string }{
		{s.FirstLabel, s.FirstColor, s.FirstImage},
		{s.SecondLabel, s.SecondColor, s.SecondImage},
	} {
		if c.name == "" {
			continue
		}
		p, err := loadPortrait(dir, c.name)
		if err != nil {
			log.Warn().Err(err).Str("cohort", c.label).Msg("Skipping cohort image")
			continue
		}
		p.Label, p.Color = c.label, c.color
		out = append(out, p)
	}
	return out
}

func loadPortrait(dir, name string) (Portrait, error) {
	path, err := assetPath(dir, name)
	if err != nil {
		return Portrait{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Portrait{}, fmt.Errorf("image %q not found", name)
	}
	if info.Size() > MaxPortraitBytes {
		return Portrait{}, fmt.Errorf("image %q is larger than %d bytes", name, MaxPortraitBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Portrait{}, fmt.Errorf("failed to read image %q: %w", name, err)
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return Portrait{}, fmt.Errorf("image %q is %s, not an image", name, mime.String())
	}
	return Portrait{MIMEType: mime.String(), Data: data}, nil
}
