package config

import (
	"path"
	"strings"
)

// Entry is an order-list item resolved against the project root.
type Entry struct {
	// Path is slash-separated and relative to the project root.
	Path string
	// Label is the text written in the bundle's section separator.
	Label string
}

// EntryKind selects the resolution rules of an order list.
type EntryKind int

const (
	// CSSEntry entries live in the stylesheet directory.
	CSSEntry EntryKind = iota
	// JSEntry entries live in the script directory.
	JSEntry
)

// rootPrefixes are the leading directories that make an entry root-relative.
// The list's own directory is always one of them.
var rootPrefixes = map[EntryKind][]string{
	CSSEntry: {"js/", "css/"},
	JSEntry:  {"vendor/", "js/", "js-refactor/"},
}

// CSSEntries resolves the stylesheet order list.
func (p *Profile) CSSEntries() []Entry {
	return resolveAll(CSSEntry, p.CSSDir, p.CSSOrder)
}

// JSEntries resolves the script order list.
func (p *Profile) JSEntries() []Entry {
	return resolveAll(JSEntry, p.JSDir, p.JSOrder)
}

// ModuleCSSEntries resolves the module stylesheets. They are always
// root-relative.
func (p *Profile) ModuleCSSEntries() []Entry {
	out := make([]Entry, 0, len(p.ModuleCSS))
	for _, e := range p.ModuleCSS {
		e = strings.ReplaceAll(e, "\\", "/")
		out = append(out, Entry{Path: path.Clean(e), Label: e})
	}
	return out
}

func resolveAll(kind EntryKind, dir string, entries []string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Resolve(kind, dir, e))
	}
	return out
}

// Resolve maps an order-list entry to a root-relative path. Entries starting
// with "../" are relative to dir and labelled with the resulting path.
// Entries under one of the kind's root prefixes (or dir itself) are taken
// from the project root. Everything else, nested or not, lives in dir.
func Resolve(kind EntryKind, dir, entry string) Entry {
	entry = strings.ReplaceAll(entry, "\\", "/")
	if strings.HasPrefix(entry, "../") {
		p := path.Join(dir, entry)
		return Entry{Path: p, Label: p}
	}
	if isRootRelative(kind, dir, entry) {
		return Entry{Path: path.Clean(entry), Label: entry}
	}
	return Entry{Path: path.Join(dir, entry), Label: entry}
}

func isRootRelative(kind EntryKind, dir, entry string) bool {
	if dir != "" && dir != "." && strings.HasPrefix(entry, strings.TrimSuffix(dir, "/")+"/") {
		return true
	}
	for _, prefix := range rootPrefixes[kind] {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}

func baseName(p string) string {
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}
