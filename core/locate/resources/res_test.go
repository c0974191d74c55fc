package resources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/fontregistry"
	"github.com/npillmayer/emojifont/core/font/webfont"
	"github.com/npillmayer/emojifont/internal/fonttest"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fontDir(t *testing.T) string {
	data, _ := fonttest.EmojiFont(t)
	dir := t.TempDir()
	sub := filepath.Join(dir, "emoji")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "Test-Color-Emoji.ttf"), data, 0644))
	asset, err := webfont.Transcoder{}.Transcode(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Packed Emoji.woff2"), asset.Data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("Test Color Emoji"), 0644))
	return dir
}

func TestResolveFontInFontDirs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "emoji.fonts")
	defer teardown()
	//
	conf := testconfig.Conf{"emoji.fontdirs": fontDir(t)}
	reg := fontregistry.NewRegistry()
	f, err := ResolveFont(conf, reg, "Test Color Emoji").Font()
	require.NoError(t, err)
	assert.Equal(t, "Emoji Test", f.Fontname)
	assert.Equal(t, "Test-Color-Emoji.ttf", filepath.Base(f.Filepath))
	// second resolution is served from the registry
	again, err := ResolveFont(conf, reg, "test color emoji").Font()
	require.NoError(t, err)
	assert.Same(t, f, again)
}

func TestResolveFontInflatePolicy(t *testing.T) {
	dir := fontDir(t)
	f, err := ResolveFont(testconfig.Conf{"emoji.fontdirs": dir},
		fontregistry.NewRegistry(), "Packed Emoji").Font()
	require.NoError(t, err)
	assert.Equal(t, webfont.FormatWOFF2, f.Source)
	_, err = ResolveFont(testconfig.Conf{"emoji.fontdirs": dir, "emoji.inflate": "never"},
		fontregistry.NewRegistry(), "Packed Emoji").Font()
	assert.Equal(t, core.EINVALID, core.Code(err))
	_, err = ResolveFont(testconfig.Conf{"emoji.inflate": "maybe"},
		fontregistry.NewRegistry(), "Packed Emoji").Font()
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestResolveFontByPath(t *testing.T) {
	path := filepath.Join(fontDir(t), "emoji", "Test-Color-Emoji.ttf")
	f, err := ResolveFont(testconfig.Conf{}, fontregistry.NewRegistry(), path).Font()
	require.NoError(t, err)
	assert.Equal(t, path, f.Filepath)
}

func TestResolveFallbackFont(t *testing.T) {
	f, err := ResolveFont(testconfig.Conf{}, fontregistry.NewRegistry(), "fallback").Font()
	require.NoError(t, err)
	assert.Equal(t, "Go Sans", f.Fontname)
}

func TestResolveMissingFont(t *testing.T) {
	_, err := ResolveFont(testconfig.Conf{"emoji.fontdirs": t.TempDir()},
		fontregistry.NewRegistry(), "No Such Emoji Font 4711").Font()
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestResolveFontCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f, err := ResolveFont(testconfig.Conf{}, fontregistry.NewRegistry(), "fallback").Await(ctx)
	if err != nil { // the loader may have finished already
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, f)
	}
}

func TestParseFontConfigList(t *testing.T) {
	out := []byte(`/usr/share/fonts/noto/NotoColorEmoji.ttf: Noto Color Emoji:style=Regular
/usr/share/fonts/dejavu/DejaVuSans.ttf: DejaVu Sans,DejaVu Sans Condensed:style=Book
/System/Library/Fonts/Apple Color Emoji.ttc: Apple Color Emoji:style=Regular

broken line
`)
	entries := parseFontConfigList(out)
	require.Len(t, entries, 2)
	assert.Equal(t, fontConfigEntry{Family: "DejaVu Sans", Path: "/usr/share/fonts/dejavu/DejaVuSans.ttf"}, entries[1])
	assert.Equal(t, "/usr/share/fonts/noto/NotoColorEmoji.ttf", matchFontConfig(entries, "Noto Color Emoji"))
	assert.Equal(t, "/usr/share/fonts/noto/NotoColorEmoji.ttf", matchFontConfig(entries, "notocoloremoji"))
	assert.Equal(t, "", matchFontConfig(entries, "Twemoji"))
	_, err := loadFontConfigList("fc-list")
	assert.Equal(t, core.EINVALID, core.Code(err))
}
