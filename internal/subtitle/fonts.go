package subtitle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog"
)

// DefaultFontBaseURL is the asset endpoint the closed font catalog maps
// into.
const DefaultFontBaseURL = "https://static.crunchyroll.com/vilos-v2/web/vilos/assets/libass-fonts/"

var styleFontRe = regexp.MustCompile(`(?m)^Style:\s.+?,(.+?),`)

// ScanFonts extracts the font names referenced by the style definitions of
// an ASS document, deduplicated in first-seen order.
func ScanFonts(doc []byte) []string {
	var fonts []string
	seen := make(map[string]struct{})
	for _, m := range styleFontRe.FindAllSubmatch(doc, -1) {
		name := string(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		fonts = append(fonts, name)
	}
	return fonts
}

// Resolver maps font names to on-disk assets, fetching uncached entries from
// the remote catalog.
type Resolver struct {
	Client   *http.Client
	BaseURL  string
	CacheDir string
	Log      zerolog.Logger
}

// Resolve returns the local path of the named font and whether it came from
// the cache. Names outside the catalog resolve to an empty path without
// error.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, bool, error) {
	file, ok := fontCatalog[name]
	if !ok {
		return "", false, nil
	}

	path := filepath.Join(r.CacheDir, file)
	if _, err := os.Stat(path); err == nil {
		r.Log.Debug().Str("font", name).Msg("font already cached")
		return path, true, nil
	}

	base := r.BaseURL
	if base == "" {
		base = DefaultFontBaseURL
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+file, nil)
	if err != nil {
		return "", false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("font fetch failed for %s: status=%d", name, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", false, err
	}
	r.Log.Debug().Str("font", name).Msg("downloaded font")
	return path, false, nil
}

// fontCatalog is the closed list of fonts subtitles may reference, mapped to
// their asset filenames.
var fontCatalog = map[string]string{
	"Adobe Arabic":                       "AdobeArabic-Bold.woff2",
	"Andale Mono":                        "andalemo.woff2",
	"Arial":                              "arial.woff2",
	"Arial Black":                        "ariblk.woff2",
	"Arial Bold":                         "arialbd.woff2",
	"Arial Bold Italic":                  "arialbi.woff2",
	"Arial Italic":                       "ariali.woff2",
	"Arial Unicode MS":                   "arialuni.woff2",
	"Comic Sans MS":                      "comic.woff2",
	"Comic Sans MS Bold":                 "comicbd.woff2",
	"Courier New":                        "cour.woff2",
	"Courier New Bold":                   "courbd.woff2",
	"Courier New Bold Italic":            "courbi.woff2",
	"Courier New Italic":                 "couri.woff2",
	"DejaVu LGC Sans Mono":               "DejaVuLGCSansMono.woff2",
	"DejaVu LGC Sans Mono Bold":          "DejaVuLGCSansMono-Bold.woff2",
	"DejaVu LGC Sans Mono Bold Oblique":  "DejaVuLGCSansMono-BoldOblique.woff2",
	"DejaVu LGC Sans Mono Oblique":       "DejaVuLGCSansMono-Oblique.woff2",
	"DejaVu Sans":                        "DejaVuSans.woff2",
	"DejaVu Sans Bold":                   "DejaVuSans-Bold.woff2",
	"DejaVu Sans Bold Oblique":           "DejaVuSans-BoldOblique.woff2",
	"DejaVu Sans Condensed":              "DejaVuSansCondensed.woff2",
	"DejaVu Sans Condensed Bold":         "DejaVuSansCondensed-Bold.woff2",
	"DejaVu Sans Condensed Bold Oblique": "DejaVuSansCondensed-BoldOblique.woff2",
	"DejaVu Sans Condensed Oblique":      "DejaVuSansCondensed-Oblique.woff2",
	"DejaVu Sans ExtraLight":             "DejaVuSans-ExtraLight.woff2",
	"DejaVu Sans Mono":                   "DejaVuSansMono.woff2",
	"DejaVu Sans Mono Bold":              "DejaVuSansMono-Bold.woff2",
	"DejaVu Sans Mono Bold Oblique":      "DejaVuSansMono-BoldOblique.woff2",
	"DejaVu Sans Mono Oblique":           "DejaVuSansMono-Oblique.woff2",
	"DejaVu Sans Oblique":                "DejaVuSans-Oblique.woff2",
	"Gautami":                            "gautami.woff2",
	"Georgia":                            "georgia.woff2",
	"Georgia Bold":                       "georgiab.woff2",
	"Georgia Bold Italic":                "georgiaz.woff2",
	"Georgia Italic":                     "georgiai.woff2",
	"Impact":                             "impact.woff2",
	"Mangal":                             "MANGAL.woff2",
	"Meera Inimai":                       "MeeraInimai-Regular.woff2",
	"Noto Sans Tamil":                    "NotoSansTamil.woff2",
	"Noto Sans Telugu":                   "NotoSansTelegu.woff2",
	"Noto Sans Thai":                     "NotoSansThai.woff2",
	"Rubik":                              "Rubik-Regular.woff2",
	"Rubik Black":                        "Rubik-Black.woff2",
	"Rubik Black Italic":                 "Rubik-BlackItalic.woff2",
	"Rubik Bold":                         "Rubik-Bold.woff2",
	"Rubik Bold Italic":                  "Rubik-BoldItalic.woff2",
	"Rubik Italic":                       "Rubik-Italic.woff2",
	"Rubik Light":                        "Rubik-Light.woff2",
	"Rubik Light Italic":                 "Rubik-LightItalic.woff2",
	"Rubik Medium":                       "Rubik-Medium.woff2",
	"Rubik Medium Italic":                "Rubik-MediumItalic.woff2",
	"Tahoma":                             "tahoma.woff2",
	"Times New Roman":                    "times.woff2",
	"Times New Roman Bold":               "timesbd.woff2",
	"Times New Roman Bold Italic":        "timesbi.woff2",
	"Times New Roman Italic":             "timesi.woff2",
	"Trebuchet MS":                       "trebuc.woff2",
	"Trebuchet MS Bold":                  "trebucbd.woff2",
	"Trebuchet MS Bold Italic":           "trebucbi.woff2",
	"Trebuchet MS Italic":                "trebucit.woff2",
	"Verdana":                            "verdana.woff2",
	"Verdana Bold":                       "verdanab.woff2",
	"Verdana Bold Italic":                "verdanaz.woff2",
	"Verdana Italic":                     "verdanai.woff2",
	"Vrinda":                             "vrinda.woff2",
	"Vrinda Bold":                        "vrindab.woff2",
	"Webdings":                           "webdings.woff2",
}
