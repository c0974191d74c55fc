/*
Command emojisub extracts single emoji from a color emoji font and writes
them as small web fonts.

	emojisub subset 😀 -o smile.woff2
	emojisub inspect "U+1F1FA U+1F1F8" --shaper glypher
	emojisub tables --font "Noto Color Emoji"
	emojisub repl

Settings may be given as flags, in a configuration file (--config) or as
environment variables prefixed with EMOJI_ (e.g., EMOJI_CACHE_TTL=5m).
*/
package main

import (
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/config"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// tracer traces with key 'emoji.pipeline'
func tracer() tracing.Trace {
	return tracing.Select("emoji.pipeline")
}

// configuration keys forwarded from viper to the pipeline
var settingKeys = []string{
	"emoji.font", "emoji.fontdirs", "emoji.fontconfig", "emoji.inflate",
	"emoji.shaper", "emoji.format",
	"subset.hinting", "subset.flatten", "subset.optimize", "subset.gsub",
	"cache.capacity", "cache.ttl", "pool.workers",
}

// tracers of the emoji packages
var traceKeys = []string{
	"emoji.codepoint", "emoji.fonts", "emoji.glyphs", "emoji.subset",
	"emoji.webfont", "emoji.pipeline",
}

var configFile string

var rootCmd = &cobra.Command{
	Use:           "emojisub",
	Short:         "emojisub subsets color emoji fonts into single-emoji web fonts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return core.WrapError(err, core.EINVALID, "cannot read configuration file %s", configFile)
			}
		}
		return setupTracing(viper.GetString("trace"))
	},
}

func init() {
	d := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "configuration file (YAML, TOML or JSON)")
	flags.String("trace", "Error", "trace level [Debug|Info|Error]")
	flags.String("font", d.Font, "name or path of the source font")
	flags.String("fontdirs", "", "font directories to search, separated by "+string(os.PathListSeparator))
	flags.String("fontconfig", "", "absolute path of fc-list")
	flags.String("inflate", d.Inflate.String(), "decoding of web font sources [auto|never|always]")
	flags.String("shaper", d.Shaper, "text shaper ["+strings.Join(config.Shapers, "|")+"]")
	flags.String("format", d.Format.String(), "output format [woff2|woff|sfnt]")
	flags.Bool("hinting", d.Hinting, "keep TrueType hinting")
	flags.Bool("flatten", d.Flatten, "decompose composite glyphs")
	flags.Bool("optimize", d.Optimize, "remove redundant outline points")
	flags.Bool("gsub", d.GSUB, "follow GSUB substitutions")
	flags.Int("cache", d.CacheCapacity, "result cache capacity, 0 disables the cache")
	flags.Duration("ttl", d.CacheTTL, "time-to-live of cached results")
	flags.Int("workers", d.Workers, "concurrent subsetting workers")
	bind := map[string]string{
		"trace": "trace", "font": "emoji.font", "fontdirs": "emoji.fontdirs",
		"fontconfig": "emoji.fontconfig", "inflate": "emoji.inflate",
		"shaper": "emoji.shaper", "format": "emoji.format",
		"hinting": "subset.hinting", "flatten": "subset.flatten",
		"optimize": "subset.optimize", "gsub": "subset.gsub",
		"cache": "cache.capacity", "ttl": "cache.ttl", "workers": "pool.workers",
	}
	for flag, key := range bind {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err) // flag names are static
		}
	}
	viper.SetEnvPrefix("EMOJI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	rootCmd.AddCommand(subsetCmd, inspectCmd, tablesCmd, replCmd)
}

func main() {
	initDisplay()
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(core.UserMessage(err))
		tracer().Errorf("%v", err)
		os.Exit(1)
	}
}

// settings collects the pipeline configuration from viper.
func settings() testconfig.Conf {
	conf := testconfig.Conf{}
	for _, key := range settingKeys {
		if v := viper.GetString(key); v != "" {
			conf[key] = v
		}
	}
	return conf
}

func setupTracing(level string) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range traceKeys {
		conf["trace."+key] = level
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return core.WrapError(err, core.EINVALID, "cannot configure tracing")
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// parseEmoji accepts an emoji either literally or as a list of code-points
// in U+XXXX notation, e.g. "U+1F1FA U+1F1F8".
func parseEmoji(arg string) (string, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 || !strings.HasPrefix(strings.ToUpper(fields[0]), "U+") {
		return arg, nil
	}
	var b strings.Builder
	for _, f := range fields {
		if !strings.HasPrefix(strings.ToUpper(f), "U+") {
			return "", core.Error(core.EINVALID, "mixed code-point notation in %q", arg)
		}
		n, err := strconv.ParseUint(f[2:], 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return "", core.Error(core.EINVALID, "invalid code-point %s", f)
		}
		b.WriteRune(rune(n))
	}
	return b.String(), nil
}

// emojiArg joins the command arguments to an emoji. Literal arguments are
// concatenated, code-point arguments are decoded.
func emojiArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", core.Error(core.EINVALID, "missing emoji argument")
	}
	s, err := parseEmoji(strings.Join(args, " "))
	if err != nil || s != strings.Join(args, " ") {
		return s, err
	}
	return strings.Join(args, ""), nil
}
