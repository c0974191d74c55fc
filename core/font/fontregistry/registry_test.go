package fontregistry

import (
	"sync"
	"testing"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFont(t *testing.T) {
	for k, v := range map[string]string{
		"Noto Color Emoji":                    "noto_color_emoji",
		"/usr/share/fonts/NotoColorEmoji.ttf": "notocoloremoji",
		"C:\\Fonts\\seguiemj.TTF":             "seguiemj",
		"Twemoji.Mozilla.woff2":               "twemoji.mozilla",
		" Go Sans ":                           "go_sans",
	} {
		assert.Equal(t, v, NormalizeFontname(k), k)
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Matches("/usr/share/fonts/NotoColorEmoji.ttf", "Noto Color Emoji"))
	assert.True(t, Matches("fonts/Noto-Color-Emoji.ttf", "notocolor"))
	assert.False(t, Matches("fonts/DejaVuSans.ttf", "Noto Color Emoji"))
}

func TestRegistryStoresOnce(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	fr := NewRegistry()
	_, err := fr.Font("Go Sans")
	assert.Equal(t, core.EMISSING, core.Code(err))
	f := font.FallbackFont()
	assert.Same(t, f, fr.StoreFont("Go Sans", f))
	other := &font.ScalableFont{Fontname: "other"}
	assert.Same(t, f, fr.StoreFont("go sans", other), "must not override")
	found, err := fr.Font("GO SANS")
	require.NoError(t, err)
	assert.Same(t, f, found)
	assert.Nil(t, fr.StoreFont("nil", nil))
	assert.Equal(t, []string{"go_sans"}, fr.Names())
	fr.LogFontList()
}

func TestRegistryConcurrentAccess(t *testing.T) {
	fr := NewRegistry()
	f := font.FallbackFont()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fr.StoreFont("fallback", f)
			_, _ = fr.Font("fallback")
		}()
	}
	wg.Wait()
	assert.Len(t, fr.Names(), 1)
}
