// Package language classifies documents into the language tags the editing
// widget uses for syntax presentation.
package language

import "strings"

// Language is a classification tag such as "python" or "plain-text".
type Language string

// Supported languages. Adding one means adding an entry to the info table and,
// if it has its own extensions, to the extension table in classifier.go.
const (
	PlainText  Language = "plain-text"
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	HTML       Language = "html"
	CSS        Language = "css"
)

type info struct {
	displayName string
	extension   string
	mimeType    string
}

var infos = map[Language]info{
	PlainText:  {"Plain Text", "txt", "text/plain"},
	Python:     {"Python", "py", "text/x-python"},
	JavaScript: {"JavaScript", "js", "text/javascript"},
	TypeScript: {"TypeScript", "ts", "application/typescript"},
	HTML:       {"HTML", "html", "text/html"},
	CSS:        {"CSS", "css", "text/css"},
}

// All returns every supported language in a stable order.
func All() []Language {
	return []Language{PlainText, Python, JavaScript, TypeScript, HTML, CSS}
}

// String returns the tag.
func (l Language) String() string { return string(l) }

// DisplayName returns the human readable name shown in the status bar.
func (l Language) DisplayName() string {
	if i, ok := infos[l]; ok {
		return i.displayName
	}
	return infos[PlainText].displayName
}

// Extension returns the canonical file extension without the dot.
func (l Language) Extension() string {
	if i, ok := infos[l]; ok {
		return i.extension
	}
	return infos[PlainText].extension
}

// MIMEType returns the media type used when creating a file of this language.
func (l Language) MIMEType() string {
	if i, ok := infos[l]; ok {
		return i.mimeType
	}
	return infos[PlainText].mimeType
}

// FromMIMEType returns the language whose media type matches mimeType, ignoring
// parameters such as "; charset=utf-8". ok is false for unknown types.
func FromMIMEType(mimeType string) (Language, bool) {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.TrimSpace(base)
	for _, l := range All() {
		if strings.EqualFold(base, l.MIMEType()) {
			return l, true
		}
	}
	return PlainText, false
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := infos[l]
	return ok
}

// Parse maps a tag or display name back to a Language. Unknown values map to
// PlainText so callers always get something renderable.
func Parse(s string) Language {
	s = strings.TrimSpace(s)
	for _, l := range All() {
		if strings.EqualFold(s, string(l)) || strings.EqualFold(s, l.DisplayName()) {
			return l
		}
	}
	return PlainText
}
