package language

import (
	"path"
	"strings"
)

// extensions maps lower-cased extensions (no dot) to languages. A hit on a
// highlightable language wins outright over anything in the content. Plain
// text extensions only settle the fallback, so the content still gets a look.
var extensions = map[string]Language{
	"py":   Python,
	"js":   JavaScript,
	"mjs":  JavaScript,
	"cjs":  JavaScript,
	"ts":   TypeScript,
	"tsx":  TypeScript,
	"html": HTML,
	"htm":  HTML,
	"css":  CSS,
	"scss": CSS,
	"sass": CSS,
	"less": CSS,
	"txt":  PlainText,
	"md":   PlainText,
}

// rule is one step of classification. ok=false passes to the next rule.
type rule func(name, content string) (Language, bool)

// rules are evaluated top-down; the first match wins.
var rules = []rule{
	byExtension,
	byShebang,
	contentRule(HTML, func(c string) bool {
		lower := strings.ToLower(c)
		return strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html")
	}),
	contentRule(Python, func(c string) bool {
		return strings.Contains(c, "def ") && strings.Contains(c, "import ")
	}),
	contentRule(JavaScript, func(c string) bool {
		return containsAny(c, "function ", "const ", "let ", "var ")
	}),
	contentRule(TypeScript, func(c string) bool {
		return strings.Contains(c, "interface ") && strings.Contains(c, ": ")
	}),
	contentRule(CSS, func(c string) bool {
		return containsAll(c, "{", "}", ":", ";")
	}),
}

// Classify returns the language of a document given its file name (or any
// locator whose last segment is the file name) and a content sample.
// It never fails; unrecognised input is PlainText.
func Classify(filename, content string) Language {
	name := baseName(filename)
	for _, r := range rules {
		if l, ok := r(name, content); ok {
			return l
		}
	}
	return PlainText
}

// FromFileName classifies by name alone.
func FromFileName(filename string) Language {
	if l, ok := byExtension(baseName(filename), ""); ok {
		return l
	}
	return PlainText
}

func byExtension(name, _ string) (Language, bool) {
	ext := strings.ToLower(path.Ext(name))
	if len(ext) < 2 {
		return "", false
	}
	l, ok := extensions[ext[1:]]
	if !ok || l == PlainText {
		return "", false
	}
	return l, true
}

func byShebang(_, content string) (Language, bool) {
	if !strings.HasPrefix(content, "#!") {
		return "", false
	}
	line, _, _ := strings.Cut(content, "\n")
	line = strings.ToLower(line)
	switch {
	case strings.Contains(line, "python"):
		return Python, true
	case strings.Contains(line, "node"):
		return JavaScript, true
	default:
		// bash, sh and anything else we cannot highlight
		return PlainText, true
	}
}

func contentRule(l Language, match func(string) bool) rule {
	return func(_, content string) (Language, bool) {
		if match(content) {
			return l, true
		}
		return "", false
	}
}

// baseName returns the last path segment of a path, file:// URI or
// content-provider reference.
func baseName(locator string) string {
	locator = strings.TrimRight(locator, "/")
	if i := strings.LastIndexAny(locator, `/\`); i >= 0 {
		return locator[i+1:]
	}
	return locator
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
