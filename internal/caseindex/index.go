// Package caseindex maps lower-cased file references to the canonical casing
// of files observed in a trusted reference corpus and in the mods being
// converted. The index is built once per run and is read-only afterwards.
//
// When two files differ only in case the first one registered wins. Roots are
// walked in the order given and entries inside a root in lexical order, so the
// outcome is deterministic but not necessarily "correct": a real collision in
// the corpus is a known limitation, reported through Collisions.
package caseindex

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Lookuper is the read-only view the case reconciler needs.
type Lookuper interface {
	// Lookup resolves a data-relative path such as "Base.rte/Door.png".
	Lookup(ref string) (string, bool)
	// LookupName resolves a bare file name such as "Weapon.lua".
	LookupName(name string) (string, bool)
	// LookupFrame resolves the frame-less name of an animation sprite
	// (Walk.png for Walk000.png). It is only consulted after the real-file
	// lookups miss.
	LookupFrame(ref string) (string, bool)
}

// Index is the case index. Real files and frame aliases live in separate
// maps so an alias never shadows a file that exists.
type Index struct {
	paths      map[string]string
	names      map[string]string
	framePaths map[string]string
	frameNames map[string]string
	collisions int
}

// frameSuffix matches the numeric frame counter of animation sprites
// (Walk000.png, Walk001.png, ...) which definitions reference as Walk.png.
var frameSuffix = regexp.MustCompile(`^(.+?)(\d{3})$`)

// New returns an empty Index.
func New() *Index {
	return &Index{
		paths:      make(map[string]string),
		names:      make(map[string]string),
		framePaths: make(map[string]string),
		frameNames: make(map[string]string),
	}
}

// Add registers one file by its slash-separated path relative to the data
// root. Animation frames also register the frame-less name.
func (ix *Index) Add(rel string) {
	rel = cleanRef(rel)
	if rel == "" {
		return
	}
	ix.put(rel)
	ix.putIfAbsent(ix.names, path.Base(rel))

	ext := path.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	if m := frameSuffix.FindStringSubmatch(path.Base(stem)); m != nil {
		base := m[1] + ext
		dir := path.Dir(rel)
		if dir != "." {
			ix.putIfAbsent(ix.framePaths, dir+"/"+base)
		} else {
			ix.putIfAbsent(ix.framePaths, base)
		}
		ix.putIfAbsent(ix.frameNames, base)
	}
}

func (ix *Index) put(canonical string) {
	k := key(canonical)
	if existing, ok := ix.paths[k]; ok {
		if existing != canonical {
			ix.collisions++
		}
		return
	}
	ix.paths[k] = canonical
}

func (ix *Index) putIfAbsent(m map[string]string, canonical string) {
	k := key(canonical)
	if _, ok := m[k]; !ok {
		m[k] = canonical
	}
}

// Lookup returns the canonical casing of a data-relative path. Backslash
// separators in ref are accepted.
func (ix *Index) Lookup(ref string) (string, bool) {
	c, ok := ix.paths[key(cleanRef(ref))]
	return c, ok
}

// LookupName returns the canonical casing of a bare file name.
func (ix *Index) LookupName(name string) (string, bool) {
	c, ok := ix.names[key(name)]
	return c, ok
}

// LookupFrame returns the canonical casing of an animation's frame-less
// name. A ref with a folder is matched as a path, a bare name as a name.
func (ix *Index) LookupFrame(ref string) (string, bool) {
	ref = cleanRef(ref)
	if strings.Contains(ref, "/") {
		c, ok := ix.framePaths[key(ref)]
		return c, ok
	}
	if c, ok := ix.framePaths[key(ref)]; ok {
		return c, true
	}
	c, ok := ix.frameNames[key(ref)]
	return c, ok
}

// Len returns the number of registered paths.
func (ix *Index) Len() int {
	return len(ix.paths)
}

// Collisions returns how many registrations were dropped because a
// differently cased file already claimed the same key.
func (ix *Index) Collisions() int {
	return ix.collisions
}

// key normalizes a reference for case-insensitive comparison. NFC folding
// keeps names typed on macOS (NFD) comparable with the rest.
func key(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// cleanRef turns Windows separators into slashes and drops a leading "./".
func cleanRef(ref string) string {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), `\`, "/")
	ref = strings.TrimPrefix(ref, "./")
	return strings.TrimPrefix(ref, "/")
}
