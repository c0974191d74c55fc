/*
Package config collects the settings of the emoji pipeline from an
application configuration.

Settings are read from a schuko.Configuration, using these keys:

	emoji.font        name or path of the source font
	emoji.fontdirs    list of font directories, separated by the OS path list separator
	emoji.fontconfig  absolute path of fontconfig's fc-list binary
	emoji.inflate     auto | never | always
	emoji.shaper      harfbuzz | gotext | glypher | none
	emoji.format      woff2 | woff | sfnt
	subset.hinting    keep TrueType instructions (bool)
	subset.flatten    decompose composite glyphs (bool)
	subset.optimize   remove redundant outline points (bool)
	subset.gsub       follow GSUB substitutions during glyph closure (bool)
	cache.capacity    number of cached results, 0 disables caching
	cache.ttl         time-to-live of cached results, e.g. "10m"; "0" disables expiry
	pool.workers      number of concurrent subsetting workers

Missing keys select defaults. Malformed values are reported as errors with
code core.EINVALID.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font"
	"github.com/npillmayer/emojifont/core/font/webfont"
	"github.com/npillmayer/schuko"
)

// Default values.
const (
	DefaultFont          = "Noto Color Emoji"
	DefaultShaper        = "harfbuzz"
	DefaultCacheCapacity = 256
	DefaultCacheTTL      = 30 * time.Minute
)

// Shapers which may be selected by key 'emoji.shaper'.
var Shapers = []string{"harfbuzz", "gotext", "glypher", "none"}

// Config holds the settings of the emoji pipeline.
type Config struct {
	Font          string
	FontDirs      []string
	FontConfig    string
	Inflate       font.InflatePolicy
	Shaper        string
	Format        webfont.Format
	Hinting       bool
	Flatten       bool
	Optimize      bool
	GSUB          bool
	CacheCapacity int
	CacheTTL      time.Duration
	Workers       int
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Font:          DefaultFont,
		Inflate:       font.InflateAuto,
		Shaper:        DefaultShaper,
		Format:        webfont.FormatWOFF2,
		GSUB:          true,
		CacheCapacity: DefaultCacheCapacity,
		CacheTTL:      DefaultCacheTTL,
		Workers:       runtime.NumCPU(),
	}
}

// FromConfig reads the pipeline settings from conf.
func FromConfig(conf schuko.Configuration) (*Config, error) {
	c := Default()
	r := reader{conf: conf}
	c.Font = r.str("emoji.font", c.Font)
	if dirs := conf.GetString("emoji.fontdirs"); dirs != "" {
		c.FontDirs = filepath.SplitList(dirs)
	}
	c.FontConfig = conf.GetString("emoji.fontconfig")
	if s := conf.GetString("emoji.inflate"); s != "" {
		c.Inflate, r.err = font.ParseInflatePolicy(s)
		if r.err != nil {
			return nil, r.err
		}
	}
	c.Shaper = strings.ToLower(r.str("emoji.shaper", c.Shaper))
	if !validShaper(c.Shaper) {
		return nil, core.Error(core.EINVALID, "unknown shaper %q, use one of %v", c.Shaper, Shapers)
	}
	if s := conf.GetString("emoji.format"); s != "" {
		if c.Format, r.err = webfont.ParseFormat(s); r.err != nil {
			return nil, r.err
		}
	}
	c.Hinting = r.boolean("subset.hinting", c.Hinting)
	c.Flatten = r.boolean("subset.flatten", c.Flatten)
	c.Optimize = r.boolean("subset.optimize", c.Optimize)
	c.GSUB = r.boolean("subset.gsub", c.GSUB)
	c.CacheCapacity = r.integer("cache.capacity", c.CacheCapacity, 0)
	c.CacheTTL = r.duration("cache.ttl", c.CacheTTL)
	c.Workers = r.integer("pool.workers", c.Workers, 1)
	if r.err != nil {
		return nil, r.err
	}
	tracer().Debugf("configuration: %s", c)
	return c, nil
}

func validShaper(name string) bool {
	for _, s := range Shapers {
		if s == name {
			return true
		}
	}
	return false
}

func (c *Config) String() string {
	return fmt.Sprintf("font=%q shaper=%s format=%s inflate=%s hinting=%v flatten=%v optimize=%v gsub=%v cache=%d/%s workers=%d",
		c.Font, c.Shaper, c.Format, c.Inflate, c.Hinting, c.Flatten, c.Optimize, c.GSUB,
		c.CacheCapacity, c.CacheTTL, c.Workers)
}

// reader keeps the first error of a sequence of reads.
type reader struct {
	conf schuko.Configuration
	err  error
}

func (r *reader) str(key, dflt string) string {
	if s := strings.TrimSpace(r.conf.GetString(key)); s != "" {
		return s
	}
	return dflt
}

func (r *reader) boolean(key string, dflt bool) bool {
	s := r.conf.GetString(key)
	if s == "" || r.err != nil {
		return dflt
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		r.err = core.WrapError(err, core.EINVALID, "configuration key %s: %q is not a boolean", key, s)
		return dflt
	}
	return b
}

func (r *reader) integer(key string, dflt, minimum int) int {
	s := r.conf.GetString(key)
	if s == "" || r.err != nil {
		return dflt
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < minimum {
		r.err = core.WrapError(err, core.EINVALID, "configuration key %s: %q is not an integer >= %d", key, s, minimum)
		return dflt
	}
	return n
}

func (r *reader) duration(key string, dflt time.Duration) time.Duration {
	s := r.conf.GetString(key)
	if s == "" || r.err != nil {
		return dflt
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d < 0 {
		r.err = core.WrapError(err, core.EINVALID, "configuration key %s: %q is not a duration >= 0", key, s)
		return dflt
	}
	return d
}
