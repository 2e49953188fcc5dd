package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// output holds the -format flag shared by report commands.
type output struct {
	format string
}

func (o *output) SetFlags(f *flag.FlagSet) {
	f.StringVar(&o.format, "format", "terminal", "Output format: terminal, markdown or html")
}

// print writes md to the report output in the selected format.
func (o *output) print(md string) error { return printMarkdown(out, o.format, md) }

// printMarkdown writes md to w, rendered for a terminal, as raw markdown or
// as an html fragment.
func printMarkdown(w io.Writer, format, md string) error {
	switch format {
	case "markdown", "md":
		_, err := io.WriteString(w, md)
		return err
	case "html":
		var buf bytes.Buffer
		if err := goldmark.New(goldmark.WithExtensions(extension.GFM)).Convert([]byte(md), &buf); err != nil {
			return fmt.Errorf("cannot convert markdown to html: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	case "terminal", "":
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err != nil {
			return err
		}
		s, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("cannot render markdown: %w", err)
		}
		_, err = io.WriteString(w, s)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
