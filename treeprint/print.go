package treeprint

import (
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/npillmayer/ratchettree"
	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/uax11"
	"golang.org/x/term"
)

// Source is a sequence of tree nodes in flat order. Both *ratchettree.Tree
// and *ratchettree.Diff are sources.
type Source[T any] interface {
	Nodes() iter.Seq2[ratchettree.TreeNodeIndex, T]
}

// modificationReporter is implemented by diffs.
type modificationReporter interface {
	IsModified(ratchettree.TreeNodeIndex) bool
}

// Role classifies a node for coloring.
type Role uint8

// Nodes are printed in one of these roles.
const (
	LeafRole Role = iota
	ParentRole
	ModifiedRole // node changed by a diff
)

// Config represents a set of configuration parameters for printing.
type Config struct {
	LineWidth int            // lines are cut at this width, measured in display columns
	Indent    int            // indentation per tree level
	Context   *uax11.Context // context for measuring text width
}

// Printer prints trees to a console with a fixed width font.
type Printer struct {
	config *Config
	colors map[Role]*color.Color
}

// NewPrinter creates a printer. config and colors may be nil, in which case
// ConfigFromTerminal and a default palette are used. colors may cover a
// subset of the roles; nodes in other roles are printed uncolored.
//
// If config.Context is nil, uax11.LatinContext is used.
func NewPrinter(config *Config, colors map[Role]*color.Color) *Printer {
	grapheme.SetupGraphemeClasses()
	p := &Printer{config: config, colors: colors}
	if p.config == nil {
		p.config = ConfigFromTerminal()
	}
	if p.config.Indent <= 0 {
		p.config.Indent = 4
	}
	if p.config.Context == nil {
		p.config.Context = uax11.LatinContext
	}
	if p.colors == nil {
		p.colors = makeDefaultPalette()
	}
	return p
}

func makeDefaultPalette() map[Role]*color.Color {
	return map[Role]*color.Color{
		LeafRole:     color.New(color.FgBlue),
		ParentRole:   color.New(color.FgGreen),
		ModifiedRole: color.New(color.FgRed, color.Bold),
	}
}

// Fprint prints all nodes of src to w, one line per node. If src reports
// modified nodes (as a diff does), these are printed in ModifiedRole.
func Fprint[T any](w io.Writer, src Source[T], p *Printer) error {
	if p == nil {
		p = NewPrinter(nil, nil)
	}
	modified, _ := src.(modificationReporter)
	for i, node := range src.Nodes() {
		role := ParentRole
		if i.IsLeaf() {
			role = LeafRole
		}
		if modified != nil && modified.IsModified(i) {
			role = ModifiedRole
		}
		if err := p.line(w, i, fmt.Sprintf("%v", node), role); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) line(w io.Writer, i ratchettree.TreeNodeIndex, payload string, role Role) error {
	indent := strings.Repeat(" ", i.Level()*p.config.Indent)
	text := p.cut(fmt.Sprintf("%s%s: %s", indent, i, payload))
	var err error
	if c, ok := p.colors[role]; ok && c != nil {
		_, err = c.Fprint(w, text)
	} else {
		_, err = io.WriteString(w, text)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

const ellipsis = "…"

// cut shortens text to the configured line width. Text is cut between
// grapheme clusters and an ellipsis is appended.
func (p *Printer) cut(text string) string {
	width, ctx := p.config.LineWidth, p.config.Context
	if width <= 0 {
		return text
	}
	gstr := grapheme.StringFromString(text)
	if uax11.StringWidth(gstr, ctx) <= width {
		return text
	}
	space := width - uax11.StringWidth(grapheme.StringFromString(ellipsis), ctx)
	var b strings.Builder
	for k := 0; k < gstr.Len(); k++ {
		g := gstr.Nth(k)
		w := uax11.StringWidth(grapheme.StringFromString(g), ctx)
		if w > space {
			break
		}
		b.WriteString(g)
		space -= w
	}
	b.WriteString(ellipsis)
	return b.String()
}

// --- Config for terminals --------------------------------------------------

// ConfigFromTerminal is a simple helper for creating a printing Config.
// It checks wether stdout is a terminal, and if so it reads the terminal's width
// and sets the Config.LineWidth parameter accordingly. Config.Context is
// derived from the user environment.
func ConfigFromTerminal() *Config {
	config := &Config{Indent: 4, Context: uax11.ContextFromEnvironment()}
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		w, _, err := term.GetSize(fd)
		if err != nil || w < 20 {
			config.LineWidth = 80
		} else {
			config.LineWidth = w
		}
	} else {
		config.LineWidth = 80
	}
	tracer().P("print", "console").Infof("setting line length to %d", config.LineWidth)
	return config
}
