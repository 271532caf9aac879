package rules

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cortexmods/modconvert/internal/defs"
)

//go:embed defaults
var defaultsFS embed.FS

// Options controls which rule trees Load reads.
type Options struct {
	// Dir is a rules directory on disk. Empty means built-in rules only.
	Dir string

	// SkipDefaults leaves out the built-in tables.
	SkipDefaults bool

	Logger *slog.Logger
}

type tree struct {
	name string
	fsys fs.FS
}

// Load reads the built-in tables followed by the tables in opts.Dir.
// Tables are merged table by table, so every general regex rule runs before
// any audio regex rule regardless of which tree it came from.
func Load(opts Options) (*RuleSet, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var trees []tree
	if !opts.SkipDefaults {
		sub, err := fs.Sub(defaultsFS, "defaults")
		if err != nil {
			return nil, fmt.Errorf("open built-in rules: %w", err)
		}
		trees = append(trees, tree{name: "built-in", fsys: sub})
	}
	if opts.Dir != "" {
		info, err := os.Stat(opts.Dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrRulesDirNotFound, opts.Dir)
		}
		trees = append(trees, tree{name: opts.Dir, fsys: os.DirFS(opts.Dir)})
	}

	b := NewBuilder()
	b.Protect(defs.ProtectedBitmaps...)
	if err := b.AddRename(defs.ExtBMP, defs.ExtPNG); err != nil {
		return nil, err
	}

	for _, t := range trees {
		if err := loadConversion(b, t); err != nil {
			return nil, err
		}
	}
	for _, table := range []struct{ name, file string }{
		{TableRegex, defs.RegexRulesYAML},
		{TableAudio, defs.AudioRulesYAML},
	} {
		for _, t := range trees {
			if err := loadRegexTable(b, t, table.name, table.file); err != nil {
				return nil, err
			}
		}
	}
	for _, t := range trees {
		if err := loadWarnings(b, t); err != nil {
			return nil, err
		}
	}

	rs := b.Build()
	logger.Debug("rule set loaded", "trees", len(trees), "counts", rs.Count())
	return rs, nil
}

// Defaults returns the built-in rule set.
func Defaults() (*RuleSet, error) {
	return Load(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

// loadConversion reads every literal table below conversion/ in lexical order.
func loadConversion(b *Builder, t tree) error {
	entries, err := fs.ReadDir(t.fsys, defs.ConversionRulesSubdir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s/%s: %w", t.name, defs.ConversionRulesSubdir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	for _, name := range names {
		file := path.Join(defs.ConversionRulesSubdir, name)
		data, err := fs.ReadFile(t.fsys, file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		var pairs []pair
		if strings.EqualFold(path.Ext(name), ".json") {
			pairs, err = jsonPairs(data)
		} else {
			pairs, err = yamlPairs(data)
		}
		if err != nil {
			return wrapLoad(t, file, err)
		}
		for _, p := range pairs {
			if err := b.AddLiteral(TableConversion, p.key, p.value); err != nil {
				return &LoadError{File: displayName(t, file), Line: p.line, Err: err}
			}
		}
	}
	return nil
}

type regexItem struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// loadRegexTable reads a sequence of {pattern, replacement} items.
func loadRegexTable(b *Builder, t tree, table, file string) error {
	data, err := fs.ReadFile(t.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", file, err)
	}

	root, err := documentRoot(data)
	if err != nil {
		return wrapLoad(t, file, err)
	}
	if root == nil {
		return nil
	}
	if root.Kind != yaml.SequenceNode {
		return &LoadError{File: displayName(t, file), Line: root.Line, Err: fmt.Errorf("%w: want a list of {pattern, replacement}", ErrMalformedTable)}
	}

	seen := make(map[string]bool, len(root.Content))
	for _, n := range root.Content {
		var item regexItem
		if err := n.Decode(&item); err != nil {
			return &LoadError{File: displayName(t, file), Line: n.Line, Err: fmt.Errorf("%w: %w", ErrMalformedTable, err)}
		}
		if seen[item.Pattern] {
			return &LoadError{File: displayName(t, file), Line: n.Line, Err: fmt.Errorf("%w: %q", ErrDuplicateKey, item.Pattern)}
		}
		seen[item.Pattern] = true
		if err := b.AddRegex(table, item.Pattern, item.Replacement); err != nil {
			return &LoadError{File: displayName(t, file), Line: n.Line, Err: err}
		}
	}
	return nil
}

// loadWarnings reads warnings.yaml:
//
//	literal:
//	  "Pattern": "Suggested replacement"
//	playsound:
//	  pattern: 'regex'
//	  suggestion: 'text'
func loadWarnings(b *Builder, t tree) error {
	file := defs.WarningsYAML
	data, err := fs.ReadFile(t.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", file, err)
	}

	root, err := documentRoot(data)
	if err != nil {
		return wrapLoad(t, file, err)
	}
	if root == nil {
		return nil
	}
	if root.Kind != yaml.MappingNode {
		return &LoadError{File: displayName(t, file), Line: root.Line, Err: fmt.Errorf("%w: want a mapping", ErrMalformedTable)}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "literal":
			pairs, err := mappingPairs(val)
			if err != nil {
				return wrapLoad(t, file, err)
			}
			for _, p := range pairs {
				if err := b.AddWarning(p.key, p.value); err != nil {
					return &LoadError{File: displayName(t, file), Line: p.line, Err: err}
				}
			}
		case "playsound":
			var ps struct {
				Pattern    string `yaml:"pattern"`
				Suggestion string `yaml:"suggestion"`
			}
			if err := val.Decode(&ps); err != nil {
				return &LoadError{File: displayName(t, file), Line: val.Line, Err: fmt.Errorf("%w: %w", ErrMalformedTable, err)}
			}
			if err := b.SetPlaysound(ps.Pattern, ps.Suggestion); err != nil {
				return &LoadError{File: displayName(t, file), Line: val.Line, Err: err}
			}
		default:
			return &LoadError{File: displayName(t, file), Line: key.Line, Err: fmt.Errorf("%w: unknown key %q", ErrMalformedTable, key.Value)}
		}
	}
	return nil
}

// pair is one ordered mapping entry.
type pair struct {
	key, value string
	line       int
}

// documentRoot parses YAML and returns the top-level node, or nil for an
// empty document.
func documentRoot(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

// yamlPairs decodes a YAML mapping of strings preserving key order.
func yamlPairs(data []byte) ([]pair, error) {
	root, err := documentRoot(data)
	if err != nil || root == nil {
		return nil, err
	}
	return mappingPairs(root)
}

func mappingPairs(n *yaml.Node) ([]pair, error) {
	if n.Kind != yaml.MappingNode {
		return nil, &LoadError{Line: n.Line, Err: fmt.Errorf("%w: want a mapping of strings", ErrMalformedTable)}
	}
	seen := make(map[string]bool, len(n.Content)/2)
	pairs := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, &LoadError{Line: k.Line, Err: fmt.Errorf("%w: non-string entry", ErrMalformedTable)}
		}
		if seen[k.Value] {
			return nil, &LoadError{Line: k.Line, Err: fmt.Errorf("%w: %q", ErrDuplicateKey, k.Value)}
		}
		seen[k.Value] = true
		pairs = append(pairs, pair{key: k.Value, value: v.Value, line: k.Line})
	}
	return pairs, nil
}

// jsonPairs decodes a flat JSON object of strings preserving key order.
// Rule files in the wild are tab indented, which YAML rejects, so JSON goes
// through the token stream instead of yaml.v3.
func jsonPairs(data []byte) ([]pair, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: want a JSON object", ErrMalformedTable)
	}

	var pairs []pair
	seen := make(map[string]bool)
	for dec.More() {
		line := lineAt(data, dec.InputOffset())
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, &LoadError{Line: line, Err: fmt.Errorf("%w: non-string key", ErrMalformedTable)}
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, &LoadError{Line: line, Err: fmt.Errorf("%w: value of %q: %w", ErrMalformedTable, key, err)}
		}
		if seen[key] {
			return nil, &LoadError{Line: line, Err: fmt.Errorf("%w: %q", ErrDuplicateKey, key)}
		}
		seen[key] = true
		pairs = append(pairs, pair{key: key, value: value, line: line})
	}
	return pairs, nil
}

// lineAt returns the 1-based line of the first non-space byte at or after off.
func lineAt(data []byte, off int64) int {
	i := int(off)
	for i < len(data) && (data[i] == ' ' || data[i] == '\t' || data[i] == '\r' || data[i] == '\n' || data[i] == ',') {
		i++
	}
	return bytes.Count(data[:min(i, len(data))], []byte("\n")) + 1
}

// wrapLoad attaches the file name to a decoding error, keeping a line number
// already carried by a nested LoadError.
func wrapLoad(t tree, file string, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return &LoadError{File: displayName(t, file), Line: le.Line, Err: le.Err}
	}
	return &LoadError{File: displayName(t, file), Err: err}
}

func displayName(t tree, file string) string {
	return t.name + "/" + file
}
