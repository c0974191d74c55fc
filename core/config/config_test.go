package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font"
	"github.com/npillmayer/emojifont/core/font/webfont"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := FromConfig(testconfig.Conf{})
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, runtime.NumCPU(), c.Workers)
	assert.True(t, c.GSUB)
	assert.Equal(t, webfont.FormatWOFF2, c.Format)
}

func TestFromConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.pipeline")
	defer teardown()
	//
	c, err := FromConfig(testconfig.Conf{
		"emoji.font":      "Twemoji",
		"emoji.fontdirs":  "/a/fonts",
		"emoji.inflate":   "never",
		"emoji.shaper":    "GoText",
		"emoji.format":    "woff",
		"subset.hinting":  "true",
		"subset.flatten":  "1",
		"subset.optimize": "false",
		"subset.gsub":     "false",
		"cache.capacity":  "0",
		"cache.ttl":       "90s",
		"pool.workers":    "3",
	})
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Font:          "Twemoji",
		FontDirs:      []string{"/a/fonts"},
		Inflate:       font.InflateNever,
		Shaper:        "gotext",
		Format:        webfont.FormatWOFF,
		Hinting:       true,
		Flatten:       true,
		CacheCapacity: 0,
		CacheTTL:      90 * time.Second,
		Workers:       3,
	}, c)
}

func TestMalformedValues(t *testing.T) {
	for key, value := range map[string]string{
		"emoji.inflate":  "sometimes",
		"emoji.shaper":   "uniscribe",
		"emoji.format":   "eot",
		"subset.hinting": "perhaps",
		"cache.capacity": "-1",
		"cache.ttl":      "forever",
		"pool.workers":   "0",
	} {
		_, err := FromConfig(testconfig.Conf{key: value})
		assert.Equal(t, core.EINVALID, core.Code(err), key)
	}
}

func TestZeroTTLDisablesExpiry(t *testing.T) {
	c, err := FromConfig(testconfig.Conf{"cache.ttl": "0"})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), c.CacheTTL)
	_, err = FromConfig(testconfig.Conf{"cache.ttl": "-5m"})
	assert.Equal(t, core.EINVALID, core.Code(err))
}
