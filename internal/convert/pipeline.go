// Package convert is the text conversion pipeline. One definition (.ini) or
// script (.lua) file goes through four stages, strictly in this order:
//
//  1. line scan: rename ".bmp" references and collect line warnings
//  2. literal rules over the whole text
//  3. case reconciliation, computed on the literal output and applied
//  4. regex rules, general tables first, audio last
//
// The pipeline holds no state between files apart from the warning collector
// it appends to.
package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cortexmods/modconvert/internal/caseindex"
	"github.com/cortexmods/modconvert/internal/fsutil"
	"github.com/cortexmods/modconvert/internal/rules"
	"github.com/cortexmods/modconvert/internal/warnings"
)

// ErrNotText indicates a file that is neither a definition nor a script.
var ErrNotText = errors.New("convert: not a definition or script file")

// FileError reports a failure converting one file. The run stops at the
// first FileError instead of copying the file unchanged.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("convert %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// FileTask is one text file to convert.
type FileTask struct {
	Input  string
	Output string
	// RelPath is the slash-separated path shown in warnings, relative to
	// the input folder (e.g. "MyMod.rte/Actors/Unit.ini").
	RelPath string
}

// Options selects which stages run.
type Options struct {
	// Convert enables the rename, literal and regex stages. Without it
	// the pipeline only collects warnings and files are copied byte for byte.
	Convert bool

	// CaseCheck enables case reconciliation. It needs a case index and
	// only runs when Convert is set.
	CaseCheck bool

	Logger *slog.Logger
}

// Result is the outcome of converting one text.
type Result struct {
	Text        string
	Warnings    []string
	Corrections []Correction
}

// Pipeline converts text files with one rule set and case index.
type Pipeline struct {
	opts     Options
	index    caseindex.Lookuper
	log      warnings.Collector
	scanner  *Scanner
	rewriter *Rewriter
	logger   *slog.Logger
}

// New returns a Pipeline. ix may be nil, which disables case reconciliation.
// Warnings are appended to log by ConvertFile; log may be nil.
func New(rs *rules.RuleSet, ix caseindex.Lookuper, log warnings.Collector, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opts:     opts,
		index:    ix,
		log:      log,
		scanner:  NewScanner(rs, opts.Convert),
		rewriter: NewRewriter(rs),
		logger:   logger,
	}
}

// ConvertText runs the pipeline over text without touching the filesystem
// or the warning collector. g selects the case grammar; nil skips the case
// stage.
func (p *Pipeline) ConvertText(text, relPath string, g Grammar) Result {
	var res Result

	var b strings.Builder
	b.Grow(len(text))
	for i, line := range SplitLines(text) {
		out, found := p.scanner.ScanLine(line, i+1, relPath)
		b.WriteString(out)
		res.Warnings = append(res.Warnings, found...)
	}
	text = b.String()

	if !p.opts.Convert {
		res.Text = text
		return res
	}

	if !p.opts.CaseCheck || p.index == nil || g == nil {
		res.Text = p.rewriter.Rewrite(text)
		return res
	}

	text = p.rewriter.ApplyLiteral(text)
	corrections := Reconcile(text, p.index, g)
	text = corrections.Apply(text)
	res.Corrections = corrections.List()

	res.Text = p.rewriter.ApplyRegex(text)
	return res
}

// ConvertFile converts task.Input into task.Output. The output directory must
// exist. Warnings are appended to the collector in line order.
func (p *Pipeline) ConvertFile(task FileTask) (Result, error) {
	g, ok := GrammarFor(task.Input)
	if !ok {
		return Result{}, &FileError{Path: task.Input, Op: "select grammar", Err: ErrNotText}
	}

	data, err := os.ReadFile(task.Input)
	if err != nil {
		return Result{}, &FileError{Path: task.Input, Op: "read", Err: err}
	}

	res := p.ConvertText(DecodeText(data), task.RelPath, g)
	if p.log != nil {
		for _, w := range res.Warnings {
			p.log.Add(w)
		}
	}

	if p.opts.Convert {
		err = fsutil.WriteFileAtomic(task.Output, []byte(res.Text))
	} else {
		err = fsutil.CopyFile(task.Input, task.Output)
	}
	if err != nil {
		return Result{}, &FileError{Path: task.Input, Op: "write " + task.Output, Err: err}
	}

	for _, c := range res.Corrections {
		p.logger.Debug("corrected reference case",
			"file", task.RelPath, "line", c.Line, "from", c.Bad, "to", c.Corrected)
	}
	return res, nil
}
