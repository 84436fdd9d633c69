package main

import (
	"fmt"
	"os"

	"github.com/standardbeagle/hexbait/internal/bytesource"
	"github.com/standardbeagle/hexbait/internal/config"
	"github.com/standardbeagle/hexbait/internal/debug"
	"github.com/standardbeagle/hexbait/internal/display"
	hbterrors "github.com/standardbeagle/hexbait/internal/errors"
	"github.com/standardbeagle/hexbait/internal/lang/cst"
	"github.com/standardbeagle/hexbait/internal/lang/eval"
	"github.com/standardbeagle/hexbait/internal/lang/ir"
	"github.com/standardbeagle/hexbait/internal/statcache"
	"github.com/standardbeagle/hexbait/internal/types"
	"github.com/standardbeagle/hexbait/internal/version"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:                   "hexbait",
		Usage:                  "explore and decode binary files against a grammar-description language",
		Version:                version.Version,
		UseShortOptionHandling: true,
		ArgsUsage:              "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "parser-definition",
				Aliases: []string{"p"},
				Usage:   "path (or glob) to a grammar-description file to evaluate the byte source against",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format: text, compact, or json",
				Value: "text",
			},
			&cli.BoolFlag{
				Name:  "show-offsets",
				Usage: "annotate each value with its source byte range",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print bigram/entropy statistics for the whole byte source",
			},
			&cli.BoolFlag{
				Name:   "batch",
				Usage:  "suppress debug logging for scripted/non-interactive use",
				Hidden: true,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "hexbait:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	debug.SetBatchMode(c.Bool("batch"))

	cwd, err := os.Getwd()
	if err != nil {
		return hbterrors.NewIOError("getwd", "", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	source, closeSource, err := openSource(c.Args().First())
	if err != nil {
		return err
	}
	if closeSource != nil {
		defer closeSource()
	}

	grammarPath := c.String("parser-definition")
	if grammarPath == "" {
		grammarPath = cfg.Grammar.DefaultPath
	}

	stats := statcache.New(source)
	defer stats.Close()

	if c.Bool("stats") {
		if err := printStats(stats, source); err != nil {
			return err
		}
	}

	if grammarPath == "" {
		if !c.Bool("stats") {
			fmt.Println("no grammar loaded; pass --parser-definition to decode the byte source")
		}
		return nil
	}

	root, err := evaluateGrammar(grammarPath, source)
	if err != nil {
		return err
	}

	formatter := display.NewTreeFormatter(display.FormatterOptions{
		Format:      c.String("format"),
		ShowOffsets: c.Bool("show-offsets"),
	})
	fmt.Print(formatter.Format(root))
	return nil
}

// openSource resolves the CLI's [FILE] argument to a ByteSource: a named
// file if given, or a fully-drained copy of stdin otherwise.
func openSource(path string) (bytesource.Source, func() error, error) {
	if path == "" {
		debug.LogEval("no FILE argument, reading byte source from stdin")
		source, err := bytesource.ReadStdin(os.Stdin)
		if err != nil {
			return nil, nil, hbterrors.NewIOError("read", "<stdin>", err)
		}
		return source, nil, nil
	}

	debug.LogEval("opening byte source %s", path)
	source, closeFn, err := bytesource.FileSource(path)
	if err != nil {
		return nil, nil, hbterrors.NewIOError("open", path, err)
	}
	return source, closeFn, nil
}

// evaluateGrammar resolves grammarPath (expanding a glob if one is given),
// reads and parses it, lowers it to IR, and evaluates it against source.
// Lex/parse/static-analysis diagnostics are recoverable per the error
// taxonomy: they are logged, not fatal, and evaluation proceeds on
// whatever the lowering produced.
func evaluateGrammar(grammarPath string, source bytesource.Source) (eval.Value, error) {
	resolved, err := bytesource.ResolveGrammarPath(grammarPath)
	if err != nil {
		return eval.Value{}, hbterrors.NewGrammarLoadError("resolve", err).WithGrammarPath(grammarPath)
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return eval.Value{}, hbterrors.NewGrammarLoadError("read", err).WithGrammarPath(resolved)
	}

	debug.LogGrammar("loaded grammar %s (%d bytes)", resolved, len(raw))

	cstRoot, parseDiags := cst.Parse(string(raw))
	for _, d := range parseDiags {
		debug.LogGrammar("parse diagnostic at %d-%d: %s", d.Start, d.End, d.Message)
	}

	file, lowerDiags := ir.Lower(cstRoot)
	for _, d := range lowerDiags {
		debug.LogGrammar("lowering diagnostic at %d-%d: %s", d.Start, d.End, d.Message)
	}

	root, evalErrs := eval.New().Evaluate(file, source)
	for _, e := range evalErrs {
		debug.LogEval("eval diagnostic at %s: %s", e.Window, e.Message)
	}
	return root, nil
}

func printStats(h *statcache.Handler, source bytesource.Source) error {
	length, ok := source.Length()
	if !ok {
		return hbterrors.NewIOError("length", "", fmt.Errorf("byte source length unknown"))
	}
	win := types.NewWindow(0, types.AbsoluteOffset(length))

	bigrams := h.Bigrams(win)
	fmt.Printf("bigram quality: %s (fraction=%.3f)\n", bigrams.Quality, bigrams.Fraction)

	entropy := h.Entropy(win)
	fmt.Printf("entropy: %.4f on a 0-1 scale (quality=%s, fraction=%.3f)\n", entropy.Value, entropy.Quality, entropy.Fraction)

	if sig := bytesource.MatchSignature(firstBytes(source)); sig != nil {
		fmt.Printf("signature: %s\n", sig.Name)
	}
	return nil
}

func firstBytes(source bytesource.Source) []byte {
	buf := make([]byte, 16)
	n, _ := source.ReadAt(0, buf)
	return buf[:n]
}
