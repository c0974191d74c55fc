package resources

import (
	"bufio"
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/fontregistry"
	"github.com/npillmayer/schuko"
)

// fontConfigEntry is a line of fc-list output.
type fontConfigEntry struct {
	Family string
	Path   string
}

func findFontConfigBinary(conf schuko.Configuration) string {
	path := conf.GetString("emoji.fontconfig")
	if path == "" {
		tracer().Debugf("fontconfig not configured: key 'emoji.fontconfig' should point to the 'fc-list' binary")
	}
	return path
}

// loadFontConfigList runs fc-list and collects the font files it reports.
// Collections (.ttc) are skipped.
func loadFontConfigList(fcpath string) ([]fontConfigEntry, error) {
	if !filepath.IsAbs(fcpath) {
		return nil, core.Error(core.EINVALID, "fontconfig binary fc-list must point to absolute path: %s", fcpath)
	}
	if fi, err := os.Stat(fcpath); err != nil || (fi.Mode().Perm()&0100) == 0 {
		return nil, core.WrapError(err, core.EINVALID,
			"fontconfig configuration points to an invalid binary: %s", fcpath)
	}
	out, err := exec.Command(fcpath).Output()
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "fontconfig binary %s failed", fcpath)
	}
	return parseFontConfigList(out), nil
}

func parseFontConfigList(out []byte) []fontConfigEntry {
	var entries []fontConfigEntry
	scanner := bufio.NewScanner(bytes.NewReader(out))
	ttc := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 2 {
			continue
		}
		fontpath := strings.TrimSpace(fields[0])
		if strings.HasSuffix(strings.ToLower(fontpath), ".ttc") {
			ttc++
			continue
		}
		family := strings.TrimPrefix(strings.TrimSpace(fields[1]), ".")
		if comma := strings.IndexByte(family, ','); comma >= 0 {
			family = family[:comma]
		}
		entries = append(entries, fontConfigEntry{Family: family, Path: fontpath})
	}
	if ttc > 0 {
		tracer().Infof("skipping %d platform fonts: TTC not yet supported", ttc)
	}
	return entries
}

var loadFontConfigListTask sync.Once
var fontConfigEntries []fontConfigEntry

// findFontConfigFont searches for a locally installed font using the fontconfig
// system (https://www.freedesktop.org/wiki/Software/fontconfig/).
// fontconfig has to be configured by setting the absolute path of the
// 'fc-list' binary. The binary is called once per process.
//
// We call the binary instead of using the C library because of possible version
// issues. If fontconfig is not configured, findFontConfigFont will silently
// return an empty path.
func findFontConfigFont(conf schuko.Configuration, name string) string {
	fcpath := findFontConfigBinary(conf)
	if fcpath == "" {
		return ""
	}
	loadFontConfigListTask.Do(func() {
		var err error
		if fontConfigEntries, err = loadFontConfigList(fcpath); err != nil {
			core.UserError(err)
			return
		}
		tracer().Infof("loaded fontconfig list with %d fonts", len(fontConfigEntries))
	})
	return matchFontConfig(fontConfigEntries, name)
}

func matchFontConfig(entries []fontConfigEntry, name string) string {
	norm := fontregistry.NormalizeFontname(name)
	var files []string
	for _, e := range entries {
		if fontregistry.NormalizeFontname(e.Family) == norm {
			return e.Path
		}
		files = append(files, e.Path)
	}
	return matchFont(files, name)
}
