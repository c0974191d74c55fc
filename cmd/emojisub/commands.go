package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/npillmayer/emojifont/core/codepoint"
	"github.com/npillmayer/emojifont/core/font/fontregistry"
	"github.com/npillmayer/emojifont/core/font/opentype/ot"
	"github.com/npillmayer/emojifont/core/font/opentype/otquery"
	"github.com/npillmayer/emojifont/core/locate/resources"
	"github.com/npillmayer/emojifont/engine/pipeline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	outFile string
	timeout time.Duration
	width   int
	height  int
)

var subsetCmd = &cobra.Command{
	Use:   "subset EMOJI",
	Short: "write the subset font for an emoji",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.Setup(settings(), fontregistry.NewRegistry())
		if err != nil {
			return err
		}
		r, err := render(cmd.Context(), p, args)
		if err != nil {
			return err
		}
		name := outFile
		if name == "" {
			seq, _ := codepoint.Decode(emojiOrEmpty(args))
			name = strings.ToLower(strings.ReplaceAll(strings.Join(seq.Hex(), "_"), "U+", "u")) +
				r.Asset.Format.Extension()
		}
		if err := os.WriteFile(name, r.Asset.Data, 0644); err != nil {
			return err
		}
		pterm.Success.Printfln("wrote %s (%s, %d glyphs)", name,
			humanize.Bytes(uint64(r.Asset.Length())), r.Diagnostics.GlyphCount)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect EMOJI",
	Short: "show diagnostics for an emoji",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.Setup(settings(), fontregistry.NewRegistry())
		if err != nil {
			return err
		}
		r, err := render(cmd.Context(), p, args)
		if err != nil {
			return err
		}
		return printDiagnostics(r)
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "list the tables of the source font",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := settings()
		f, err := resources.ResolveFont(conf, fontregistry.NewRegistry(), conf.GetString("emoji.font")).Font()
		if err != nil {
			return err
		}
		pterm.Info.Printfln("%s (%s, %d glyphs)", f.Fontname, f.Source, f.OT.NumGlyphs())
		printFontSummary(f.OT)
		data := pterm.TableData{{"Table", "Size"}}
		for _, tag := range f.OT.TableTags() {
			data = append(data, []string{tag.String(), humanize.Bytes(uint64(len(f.OT.Table(tag).Binary())))})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

func init() {
	subsetCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file, default derived from the code-points")
	for _, cmd := range []*cobra.Command{subsetCmd, inspectCmd, replCmd} {
		cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "maximum time to wait for a result")
		cmd.Flags().IntVar(&width, "width", 0, "requested width in pixels")
		cmd.Flags().IntVar(&height, "height", 0, "requested height in pixels")
	}
}

func emojiOrEmpty(args []string) string {
	s, _ := emojiArg(args)
	return s
}

func render(ctx context.Context, p *pipeline.Pipeline, args []string) (*pipeline.Result, error) {
	text, err := emojiArg(args)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Render(ctx, pipeline.Request{Text: text, Width: width, Height: height})
}

func printFontSummary(otf *ot.Font) {
	names := otquery.NameInfo(otf)
	m := otquery.FontMetrics(otf)
	pterm.Info.Printfln("family %q, version %q, %s", names["family"], names["version"], otquery.FontType(otf))
	pterm.Info.Printfln("glyph formats %v, %d color glyphs, bitmap sizes %v",
		otquery.GlyphFormats(otf), otquery.ColorGlyphs(otf), otquery.BitmapSizes(otf))
	pterm.Info.Printfln("units per em %d, ascent %d, descent %d, layout tables %v",
		m.UnitsPerEm, m.Ascent, m.Descent, otquery.LayoutTables(otf))
}

func printDiagnostics(r *pipeline.Result) error {
	d := r.Diagnostics
	data := pterm.TableData{
		{"Code-points", strings.Join(d.CodePoints, " ")},
		{"Shaper", d.Shaper},
		{"Glyphs", fmt.Sprintf("%d", d.GlyphCount)},
		{"Format", r.Asset.Format.String()},
		{"Size", fmt.Sprintf("%s (source %s)", humanize.Bytes(uint64(d.Length)),
			humanize.Bytes(uint64(r.Asset.SourceLength)))},
		{"Duration", d.Duration.String()},
		{"Cached", fmt.Sprintf("%v", d.Cached)},
	}
	if err := pterm.DefaultTable.WithData(data).Render(); err != nil {
		return err
	}
	for _, w := range d.Warnings {
		pterm.Warning.Println(w)
	}
	return nil
}
