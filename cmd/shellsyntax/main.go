// Command shellsyntax parses a shell script and prints its diagnostics (and,
// optionally, its annotated syntax tree) to stdout.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elves/shellsyntax/pkg/ast"
	"github.com/elves/shellsyntax/pkg/parse"
	"github.com/spf13/cobra"
	"src.elv.sh/pkg/diag"
	"src.elv.sh/pkg/sys"
)

var (
	printAST bool
	file     string
)

var rootCmd = &cobra.Command{
	Use:   "shellsyntax [script]",
	Short: "Parse a shell script and report its diagnostics",
	Long: `shellsyntax parses POSIX/Bash shell source and reports the notes
(style hints, warnings, recoverable errors) the parser collects along the
way, optionally along with the parsed syntax tree.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			file = args[0]
		}
		if file != "" {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			return run(file, f)
		}
		if sys.IsATTY(os.Stdin.Fd()) {
			return repl()
		}
		return run("<stdin>", os.Stdin)
	},
}

func main() {
	rootCmd.Flags().BoolVar(&printAST, "print-ast", false, "print the parsed syntax tree")
	rootCmd.Flags().StringVar(&file, "file", "", "script file to parse (defaults to the first positional argument, then stdin)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func repl() error {
	fmt.Println("shellsyntax interactive mode; one script line at a time, Ctrl-D to quit.")
	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		fmt.Print("shellsyntax> ")
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
			report("<stdin>", b.String())
			b.Reset()
		}
		if err != nil {
			if err != io.EOF {
				return err
			}
			return nil
		}
	}
}

func run(name string, r io.Reader) error {
	contents, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	report(name, string(contents))
	return nil
}

func report(name, contents string) {
	result := parse.ParseShell(name, contents)
	if printAST && result.Tree != nil {
		fmt.Println(ast.PprintToken(result.Tree.Root))
	}
	if result.Tree == nil {
		fmt.Println("parse failed")
	}
	for _, n := range result.Notes {
		fmt.Printf("%s: %s: %s\n", n.Position, n.Severity, n.Message)
		showSource(name, contents, n.Position)
	}
}

// showSource renders a compact one-line source-context view around pos,
// the same way the teacher's main.go uses src.elv.sh/pkg/diag to point at a
// parse error's location.
func showSource(name, contents string, pos ast.Position) {
	off := offsetOf(contents, pos)
	sr := diag.NewContext(name, contents, diag.PointRanging(off))
	fmt.Printf("  %s\n", sr.ShowCompact("  "))
}

// offsetOf converts a {line, column} position back into a byte offset into
// contents, since ast.Position tracks line/column (per spec.md's dropped
// byte-span requirement) but diag.PointRanging wants an offset.
func offsetOf(contents string, pos ast.Position) int {
	line, col := 1, 1
	for i, r := range contents {
		if line == pos.Line && col == pos.Column {
			return i
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return len(contents)
}
