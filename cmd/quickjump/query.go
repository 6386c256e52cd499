package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/quickjump/internal/app"
	"github.com/dshills/quickjump/internal/input/palette"
)

type queryFlags struct {
	mode    string
	open    []string
	json    bool
	sel     int
	confirm bool
	verbose bool
}

func newQueryCmd(g *globalFlags, stdout io.Writer) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query [flags] [text]",
		Short: "Run one palette query and print the results",
		Long: `Run one palette query against the workspace without opening the terminal UI.

The text is evaluated once, exactly as if it had been typed into the palette.
Modes other than location and command get their prefix added when missing.`,
		Example: `  quickjump query main
  quickjump query -w ./project --open src/main.go '#TODO'
  quickjump query --mode reference render --json
  quickjump query --mode command close --confirm`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) == 1 {
				text = args[0]
			}
			return runQuery(cmd.Context(), g, f, text, stdout)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.mode, "mode", "m", "location", "Palette mode (location, command, line, search, reference)")
	fl.StringSliceVarP(&f.open, "open", "o", nil, "Open these files before querying; the last one is current")
	fl.BoolVar(&f.json, "json", false, "Print results as JSON")
	fl.IntVarP(&f.sel, "select", "s", 0, "Move the selection by this many rows")
	fl.BoolVar(&f.confirm, "confirm", false, "Confirm the selected result and print where it leads")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Write logs to stderr")
	return cmd
}

func runQuery(ctx context.Context, g *globalFlags, f *queryFlags, text string, stdout io.Writer) error {
	mode, err := palette.ParseMode(f.mode)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := g.options()
	opts.Files = f.open
	if f.verbose {
		opts.LogConsole = os.Stderr
	}
	application, err := app.New(opts)
	if err != nil {
		return err
	}
	defer application.Shutdown()
	if err := application.Start(ctx); err != nil {
		return err
	}

	p := application.Palette()
	p.Activate(mode)
	if prefix := mode.Prefix(); !strings.HasPrefix(text, prefix) {
		text = prefix + text
	}
	p.Evaluate(text)
	if f.sel != 0 {
		p.Navigate(f.sel)
	}

	if f.confirm {
		return confirmQuery(application, p, stdout)
	}
	if f.json {
		out, err := resultsJSON(p)
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	}
	printResults(stdout, p)
	return nil
}

// confirmQuery confirms the selection and prints the resulting editor
// location followed by the last status message.
func confirmQuery(application *app.Application, p *palette.Palette, stdout io.Writer) error {
	if _, ok := p.Current(); !ok {
		return fmt.Errorf("no results for %q", p.Input())
	}
	if err := p.Confirm(); err != nil {
		return err
	}
	docs := application.Documents()
	if doc := docs.Current(); doc != nil {
		at := docs.Cursor()
		fmt.Fprintf(stdout, "%s:%d:%d\n", doc.Path(), at.Line+1, at.Column+1)
	}
	if status := application.Status(); status != "" {
		fmt.Fprintln(stdout, status)
	}
	return nil
}

func printResults(w io.Writer, p *palette.Palette) {
	st := newStyles(w)
	results := p.Results()
	if len(results) == 0 {
		fmt.Fprintln(w, st.sublabel.Render("no results"))
		return
	}
	for i, c := range results {
		marker := " "
		if i == p.Selected() {
			marker = st.marker.Render(">")
		}
		line := marker + " " + st.label.Render(c.Label())
		if sub := c.Sublabel(); sub != "" {
			line += "  " + st.sublabel.Render(sub)
		}
		fmt.Fprintln(w, line)
	}
}

// resultsJSON renders the palette state as indented JSON.
func resultsJSON(p *palette.Palette) ([]byte, error) {
	doc := []byte(`{}`)
	set := func(path string, value any) error {
		var err error
		doc, err = sjson.SetBytes(doc, path, value)
		return err
	}

	if err := set("mode", p.Mode().String()); err != nil {
		return nil, err
	}
	if err := set("input", p.Input()); err != nil {
		return nil, err
	}
	if err := set("selected", p.Selected()); err != nil {
		return nil, err
	}
	if err := set("results", []any{}); err != nil {
		return nil, err
	}
	for i, c := range p.Results() {
		if err := set(fmt.Sprintf("results.%d", i), candidateFields(c)); err != nil {
			return nil, err
		}
	}
	return pretty.Pretty(doc), nil
}

func candidateFields(c palette.Candidate) map[string]any {
	fields := map[string]any{
		"label":    c.Label(),
		"sublabel": c.Sublabel(),
	}
	switch c := c.(type) {
	case palette.ActionCandidate:
		fields["kind"] = "action"
		fields["command"] = c.CommandID
	case palette.FileCandidate:
		fields["kind"] = "file"
		fields["path"] = c.FullPath
	case palette.LocationCandidate:
		fields["kind"] = "location"
		fields["path"] = c.Document.Path()
		fields["line"] = c.Line
		fields["column"] = c.Column
	case palette.ReferenceCandidate:
		fields["kind"] = "reference"
		fields["path"] = c.Document.Path()
		fields["line"] = c.Line
		fields["column"] = c.Column
		fields["symbol"] = c.Symbol
	}
	return fields
}
