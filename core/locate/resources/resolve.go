package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font"
	"github.com/npillmayer/emojifont/core/font/fontregistry"
	"github.com/npillmayer/schuko"
)

// NotFound returns an application error for a missing font.
func NotFound(res string) error {
	e := fmt.Errorf("resource missing: %v", res)
	return core.WrapError(e, core.EMISSING, "font not found: %s", res)
}

// --- Fonts -----------------------------------------------------------------

type fontPlusErr struct {
	font *font.ScalableFont
	err  error
}

// FontPromise delivers a font which is being loaded in the background.
type FontPromise interface {
	Font() (*font.ScalableFont, error)
	Await(ctx context.Context) (*font.ScalableFont, error)
}

type fontLoader struct {
	await func(ctx context.Context) (*font.ScalableFont, error)
}

func (loader fontLoader) Font() (*font.ScalableFont, error) {
	return loader.await(context.Background())
}

func (loader fontLoader) Await(ctx context.Context) (*font.ScalableFont, error) {
	return loader.await(ctx)
}

// ResolveFont resolves a source font by name or path. Loaded fonts are
// stored in registry reg, which is consulted first.
func ResolveFont(conf schuko.Configuration, reg *fontregistry.Registry, name string) FontPromise {
	ch := make(chan fontPlusErr, 1)
	go func(ch chan<- fontPlusErr) {
		defer close(ch)
		result := fontPlusErr{}
		if f, err := reg.Font(name); err == nil {
			result.font = f
			ch <- result
			return
		}
		var inflate font.InflatePolicy
		if inflate, result.err = font.ParseInflatePolicy(conf.GetString("emoji.inflate")); result.err != nil {
			ch <- result
			return
		}
		var f *font.ScalableFont
		if strings.EqualFold(name, "fallback") {
			f = font.FallbackFont()
		} else if fpath := locateFont(conf, name); fpath != "" {
			f, result.err = font.LoadScalableFont(fpath, inflate)
		} else {
			result.err = NotFound(name)
		}
		if f != nil {
			result.font = reg.StoreFont(name, f)
		}
		ch <- result
	}(ch)
	return fontLoader{
		await: func(ctx context.Context) (*font.ScalableFont, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case r := <-ch:
				return r.font, r.err
			}
		},
	}
}

// locateFont returns the path of a font file, or "".
func locateFont(conf schuko.Configuration, name string) string {
	if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
		tracer().Debugf("%s is a font file", name)
		return name
	}
	if fpath := searchFontDirs(filepath.SplitList(conf.GetString("emoji.fontdirs")), name); fpath != "" {
		tracer().Debugf("found font %s in configured font directories", fpath)
		return fpath
	}
	if fpath := findFontConfigFont(conf, name); fpath != "" {
		tracer().Debugf("found font %s with fontconfig", fpath)
		return fpath
	}
	if fpath, err := findfont.Find(name); err == nil && fpath != "" {
		tracer().Debugf("%s is a system font", name)
		return fpath
	}
	if fpath := matchFont(findfont.List(), name); fpath != "" {
		tracer().Debugf("%s matches system font %s", name, fpath)
		return fpath
	}
	tracer().Infof("font %s not found", name)
	return ""
}

func searchFontDirs(dirs []string, name string) string {
	var files []string
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				tracer().Debugf("skipping font directory entry %s: %v", path, err)
				return nil
			}
			if !d.IsDir() {
				files = append(files, path)
			}
			return nil
		})
	}
	return matchFont(files, name)
}

// matchFont selects the best matching font file: an exact match of the
// normalized name wins, otherwise the shortest path containing name.
func matchFont(files []string, name string) string {
	var candidates []string
	for _, f := range files {
		if !isFontFile(f) {
			continue
		}
		if fontregistry.NormalizeFontname(f) == fontregistry.NormalizeFontname(name) {
			return f
		}
		if fontregistry.Matches(f, name) {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) < len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0]
}

func isFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf", ".woff", ".woff2":
		return true
	}
	return false
}
