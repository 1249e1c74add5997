// Command structure is the driver for the No More Gotos control-flow
// structurer: it parses a Graphviz DOT control-flow graph, runs
// structure.StructureWhole over it, and prints the recovered AST as an
// indented pseudocode listing.
//
// All flags are driver-level configuration; the core packages (cond, cfg,
// dom, structure, ast) take no flags of their own.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/graphism/nogoto/ast"
	"github.com/graphism/nogoto/cfg"
	"github.com/graphism/nogoto/cond"
	"github.com/graphism/nogoto/interval"
	"github.com/graphism/nogoto/structure"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"
)

// dbg logs debug messages to standard error, with the prefix "structure:".
var dbg = log.New(os.Stderr, term.RedBold("structure:")+" ", 0)

func main() {
	var (
		verbose       bool
		dumpDir       string
		showIntervals bool
	)
	flag.BoolVar(&verbose, "v", false, "enable verbose debug tracing of the structuring process")
	flag.StringVar(&dumpDir, "dump-dir", "", "if set, write the parsed input graph as input.dot under this directory before structuring")
	flag.BoolVar(&showIntervals, "intervals", false, "print the Allen-Cocke interval partition of the input graph before structuring it (a diagnostic independent of the No More Gotos pipeline)")
	flag.Parse()

	if verbose {
		structure.SetDebug(true)
		interval.SetDebug(true)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: structure [-v] [-dump-dir dir] [-intervals] FILE.dot ...")
		os.Exit(2)
	}

	for _, path := range flag.Args() {
		if err := structureFile(path, dumpDir, showIntervals); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

func structureFile(path, dumpDir string, showIntervals bool) error {
	dbg.Printf("\n=== [ %s ] ===\n\n", path)

	ctx := cond.NewContext()
	g, err := cfg.ParseFile(path, ctx, cfg.BasicAtomResolver)
	if err != nil {
		return errors.Wrapf(err, "parsing %q", path)
	}

	if dumpDir != "" {
		if err := dumpGraph(g, dumpDir, "input.dot"); err != nil {
			return err
		}
	}

	if showIntervals {
		for _, iv := range interval.Intervals(g, g.Entry()) {
			fmt.Printf("interval %v\n", iv)
		}
	}

	result, err := structure.StructureWhole(g, ctx)
	if err != nil {
		return errors.Wrapf(err, "structuring %q", path)
	}

	fmt.Println(Print(result))
	return nil
}

func dumpGraph(g *cfg.Graph, dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithStack(err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	return errors.WithStack(g.WriteDOT(f))
}

// Print renders an ast.Node tree as an indented pseudocode listing. This
// is a debug convenience for cmd/structure only: the core itself never
// emits source text, and rendering the recovered AST to real source is
// left to a downstream printer.
func Print(n ast.Node) string {
	var b strings.Builder
	printNode(&b, n, 0)
	return strings.TrimRight(b.String(), "\n")
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("    ", depth))
}

func printNode(b *strings.Builder, n ast.Node, depth int) {
	switch v := n.(type) {
	case nil:
		return
	case *ast.BasicBlock:
		indent(b, depth)
		fmt.Fprintf(b, "%v\n", v.Payload)
	case *ast.Seq:
		for _, s := range v.Stmts {
			printNode(b, s, depth)
		}
	case *ast.Cond:
		indent(b, depth)
		fmt.Fprintf(b, "if %s {\n", v.Condition)
		printNode(b, v.Then, depth+1)
		if v.Else != nil {
			indent(b, depth)
			b.WriteString("} else {\n")
			printNode(b, v.Else, depth+1)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *ast.Loop:
		indent(b, depth)
		switch v.Kind {
		case ast.LoopPreChecked:
			fmt.Fprintf(b, "while %s {\n", v.Cond)
		case ast.LoopPostChecked:
			b.WriteString("do {\n")
		default:
			b.WriteString("loop {\n")
		}
		printNode(b, v.Body, depth+1)
		indent(b, depth)
		if v.Kind == ast.LoopPostChecked {
			fmt.Fprintf(b, "} while %s\n", v.Cond)
		} else {
			b.WriteString("}\n")
		}
	case *ast.Switch:
		indent(b, depth)
		fmt.Fprintf(b, "switch %s {\n", v.Var)
		for _, c := range v.Cases {
			indent(b, depth+1)
			fmt.Fprintf(b, "case %v:\n", c.Values)
			printNode(b, c.Body, depth+2)
		}
		if v.Default != nil {
			indent(b, depth+1)
			b.WriteString("default:\n")
			printNode(b, v.Default, depth+2)
		}
		indent(b, depth)
		b.WriteString("}\n")
	default:
		indent(b, depth)
		fmt.Fprintf(b, "/* unknown ast.Node %T */\n", v)
	}
}
