package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"
)

// Bundled defaults for supplementary public content. Pages that depend on
// optional content degrade to these rather than showing an error when the
// upstream fetch fails and no last-known-good snapshot exists.

//go:embed defaults/*.json
var defaultsFS embed.FS

// Defaults holds the bundled fallback content, decoded once.
type Defaults struct {
	HeroSlides  []HeroSlide
	About       AboutContent
	ImpactStats []ImpactStat
	Footer      FooterSettings
}

var (
	defaultsOnce sync.Once
	defaults     *Defaults
	defaultsErr  error
)

// LoadDefaults decodes the embedded default content. The result is cached
// for the life of the process.
func LoadDefaults() (*Defaults, error) {
	defaultsOnce.Do(func() {
		d := &Defaults{}
		for _, f := range []struct {
			name   string
			target any
		}{
			{"defaults/hero_slides.json", &d.HeroSlides},
			{"defaults/about.json", &d.About},
			{"defaults/impact_stats.json", &d.ImpactStats},
			{"defaults/footer.json", &d.Footer},
		} {
			data, err := defaultsFS.ReadFile(f.name)
			if err != nil {
				defaultsErr = fmt.Errorf("content: read %s: %w", f.name, err)
				return
			}
			if err := json.Unmarshal(data, f.target); err != nil {
				defaultsErr = fmt.Errorf("content: decode %s: %w", f.name, err)
				return
			}
		}
		defaults = d
	})
	return defaults, defaultsErr
}
