package fontregistry

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font"
	"github.com/npillmayer/schuko/tracing"
)

// Registry is a type for holding loaded source fonts.
// It is safe for concurrent use.
type Registry struct {
	sync.Mutex
	fonts map[string]*font.ScalableFont
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	fr := &Registry{
		fonts: make(map[string]*font.ScalableFont),
	}
	return fr
}

// StoreFont pushes a font into the registry if it isn't contained yet.
//
// The font will be stored using the normalized font name as a key. If this
// key is already associated with a font, that font will not be overridden.
// StoreFont returns the font stored under the key.
func (fr *Registry) StoreFont(name string, f *font.ScalableFont) *font.ScalableFont {
	if f == nil {
		tracer().Errorf("registry cannot store null font")
		return nil
	}
	normalizedName := NormalizeFontname(name)
	fr.Lock()
	defer fr.Unlock()
	if stored, ok := fr.fonts[normalizedName]; ok {
		return stored
	}
	tracer().Debugf("registry stores font %s as %s", f.Fontname, normalizedName)
	fr.fonts[normalizedName] = f
	return f
}

// Font returns the font stored under a name. If no such font has been
// stored, an error with code core.EMISSING is returned.
func (fr *Registry) Font(name string) (*font.ScalableFont, error) {
	normalizedName := NormalizeFontname(name)
	fr.Lock()
	defer fr.Unlock()
	if f, ok := fr.fonts[normalizedName]; ok {
		tracer().Debugf("registry found font %s", normalizedName)
		return f, nil
	}
	return nil, core.Error(core.EMISSING, "font %s not found in registry", name)
}

// Names returns the keys of all stored fonts, sorted.
func (fr *Registry) Names() []string {
	fr.Lock()
	defer fr.Unlock()
	names := make([]string, 0, len(fr.fonts))
	for k := range fr.fonts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LogFontList is a helper function to dump the list of known fonts
// in a registry to the trace-file (log-level Info).
func (fr *Registry) LogFontList() {
	level := tracer().GetTraceLevel()
	tracer().SetTraceLevel(tracing.LevelInfo)
	tracer().Infof("--- registered fonts ---")
	for _, k := range fr.Names() {
		f, _ := fr.Font(k)
		tracer().Infof("font [%s] = %v (%s)", k, f.Fontname, f.Source)
	}
	tracer().Infof("------------------------")
	tracer().SetTraceLevel(level)
}

// NormalizeFontname creates a registry key from a font name or a font file
// path: the base name without extension, in lower case, with blanks
// replaced by underscores.
func NormalizeFontname(fname string) string {
	fname = strings.TrimSpace(fname)
	fname = path.Base(strings.ReplaceAll(fname, "\\", "/"))
	fname = strings.ReplaceAll(fname, " ", "_")
	switch ext := strings.ToLower(path.Ext(fname)); ext {
	case ".ttf", ".otf", ".woff", ".woff2":
		fname = fname[:len(fname)-len(ext)]
	}
	fname = strings.ToLower(fname)
	return fname
}

// Matches returns true if a font's filename contains pattern, ignoring
// case, blanks and underscores.
func Matches(fontfilename, pattern string) bool {
	simplify := func(s string) string {
		return strings.ReplaceAll(strings.ReplaceAll(s, "_", ""), "-", "")
	}
	basename := simplify(NormalizeFontname(fontfilename))
	tracer().Debugf("basename of font = %s", basename)
	return strings.Contains(basename, simplify(NormalizeFontname(pattern)))
}
