// Command amlshell is an interactive browser for parsed AML tables: a
// namespace tree on the left, entity details on the right, and an input
// line for invoking control methods against the in-memory host simulator.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"

	"github.com/amlgo/aml/internal/aml"
	"github.com/amlgo/aml/internal/aml/host"
	"github.com/amlgo/aml/internal/table"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: amlshell <table.aml> [more tables...]")
		os.Exit(2)
	}

	log := logrus.New()
	log.SetOutput(io.Discard) // the terminal belongs to tview

	c := aml.NewContext(host.NewMemory(), log, aml.DefaultConfig())
	for _, path := range os.Args[1:] {
		img, err := table.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "amlshell: %v\n", err)
			os.Exit(1)
		}
		if perr := c.ParseTable(img.Data, img.Revision); perr != nil {
			fmt.Fprintf(os.Stderr, "amlshell: %s: %v\n", path, perr)
			os.Exit(1)
		}
	}

	if err := newShell(c).run(); err != nil {
		fmt.Fprintf(os.Stderr, "amlshell: %v\n", err)
		os.Exit(1)
	}
}

type shell struct {
	ctx    *aml.Context
	app    *tview.Application
	tree   *tview.TreeView
	detail *tview.TextView
	input  *tview.InputField
}

func newShell(c *aml.Context) *shell {
	s := &shell{ctx: c, app: tview.NewApplication()}

	rootEnt := c.Namespace().Root()
	rootNode := tview.NewTreeNode("\\").SetColor(tcell.ColorYellow).SetReference(rootEnt)
	addChildren(rootNode, rootEnt)

	s.tree = tview.NewTreeView().SetRoot(rootNode).SetCurrentNode(rootNode)
	s.tree.SetBorder(true).SetTitle(" namespace ")
	s.tree.SetChangedFunc(func(node *tview.TreeNode) {
		if e, ok := node.GetReference().(aml.Entity); ok {
			s.showDetail(e)
		}
	})
	s.tree.SetSelectedFunc(func(node *tview.TreeNode) {
		node.SetExpanded(!node.IsExpanded())
	})

	s.detail = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	s.detail.SetBorder(true).SetTitle(" details ")

	s.input = tview.NewInputField().SetLabel("invoke> ").SetFieldBackgroundColor(tcell.ColorBlack)
	s.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := strings.TrimSpace(s.input.GetText())
		if line != "" {
			s.invoke(line)
			s.input.SetText("")
		}
	})

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.detail, 0, 1, false).
		AddItem(s.input, 1, 0, false)
	layout := tview.NewFlex().
		AddItem(s.tree, 0, 1, true).
		AddItem(right, 0, 2, false)

	s.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab:
			if s.tree.HasFocus() {
				s.app.SetFocus(s.input)
			} else {
				s.app.SetFocus(s.tree)
			}
			return nil
		case tcell.KeyCtrlC:
			s.app.Stop()
			return nil
		}
		return event
	})

	s.app.SetRoot(layout, true)
	return s
}

func (s *shell) run() error { return s.app.Run() }

func addChildren(node *tview.TreeNode, e aml.Entity) {
	scope, ok := e.(aml.ScopeEntity)
	if !ok {
		return
	}
	for _, child := range scope.Children() {
		if child.Name() == "" {
			continue // anonymous method-body terms
		}
		n := tview.NewTreeNode(label(child)).SetReference(child)
		if _, isScope := child.(aml.ScopeEntity); isScope {
			n.SetColor(tcell.ColorGreen).SetExpanded(false)
		}
		addChildren(n, child)
		node.AddChild(n)
	}
}

func label(e aml.Entity) string {
	name := strings.TrimRight(e.Name(), "_")
	if name == "" {
		name = e.Name()
	}
	if m, ok := e.(*aml.Method); ok {
		return fmt.Sprintf("%s/%d", name, m.ArgCount)
	}
	return name
}

func (s *shell) showDetail(e aml.Entity) {
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]%s[-]\n", e.Name())
	fmt.Fprintf(&b, "kind: %s\n", e.Kind())
	switch t := e.(type) {
	case *aml.Integer:
		fmt.Fprintf(&b, "value: 0x%X (%d)\n", t.Val, t.Val)
	case *aml.String:
		fmt.Fprintf(&b, "value: %q\n", t.Val)
	case *aml.Buffer:
		fmt.Fprintf(&b, "length: %d\ndata: % X\n", len(t.Data), t.Data)
	case *aml.Package:
		fmt.Fprintf(&b, "elements: %d\n", len(t.Elements))
	case *aml.Method:
		fmt.Fprintf(&b, "args: %d\nserialized: %v\nsync level: %d\n", t.ArgCount, t.Serialized, t.SyncLevel)
	case *aml.OpRegion:
		fmt.Fprintf(&b, "space: %s\noffset: 0x%X\nlength: 0x%X\n", t.Space, t.Offset, t.Length)
	case *aml.FieldUnit:
		fmt.Fprintf(&b, "region: %s\nbit offset: %d\nbit width: %d\n", t.RegionName, t.BitOffset, t.BitWidth)
	case *aml.IndexField:
		fmt.Fprintf(&b, "index: %s\ndata: %s\nbit offset: %d\nbit width: %d\n", t.IndexRegName, t.DataRegName, t.BitOffset, t.BitWidth)
	case *aml.Processor:
		fmt.Fprintf(&b, "processor id: %d\n", t.ProcID)
	}
	s.detail.SetText(b.String())
}

// invoke runs "PATH [args...]" from the input line and appends the result to
// the detail pane.
func (s *shell) invoke(line string) {
	fields := strings.Fields(line)
	args := make([]interface{}, 0, len(fields)-1)
	for _, f := range fields[1:] {
		if n, err := strconv.ParseUint(f, 0, 64); err == nil {
			args = append(args, n)
		} else {
			args = append(args, f)
		}
	}
	result, err := s.ctx.InvokeMethod(context.Background(), fields[0], args...)
	var text string
	if err != nil {
		text = fmt.Sprintf("[red]%s: %v[-]\n", fields[0], err)
	} else {
		text = fmt.Sprintf("[green]%s[-] => %s\n", fields[0], renderResult(result))
	}
	fmt.Fprint(s.detail, "\n"+text)
}

func renderResult(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "(no value)"
	case uint64:
		return fmt.Sprintf("0x%X", t)
	case bool:
		return fmt.Sprintf("%v", t)
	case string:
		return fmt.Sprintf("%q", t)
	case []byte:
		return fmt.Sprintf("Buffer(% X)", t)
	case *aml.Integer:
		return fmt.Sprintf("0x%X", t.Val)
	case *aml.Boolean:
		return fmt.Sprintf("%v", t.Val)
	case *aml.String:
		return fmt.Sprintf("%q", t.Val)
	case *aml.Buffer:
		return fmt.Sprintf("Buffer(% X)", t.Data)
	case aml.Entity:
		return fmt.Sprintf("%s(%s)", t.Kind(), t.Name())
	default:
		return fmt.Sprintf("%v", t)
	}
}
