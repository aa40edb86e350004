package parser

// TranslationUnit is one old/new pair extracted from a translation file.
type TranslationUnit struct {
	// Source is the unescaped payload of the old "..." line.
	Source string
	// Target is the unescaped payload of the new "..." line. Empty means
	// the pair has not been translated yet.
	Target string
	// OldLine is the 0-based index of the old line in the document.
	OldLine int
	// NewLine is the 0-based index of the new line in the document.
	NewLine int
}

// Document is one script file split into raw lines. Lines are split on
// "\n" only; a trailing "\r" stays part of its line so CRLF files
// round-trip byte-for-byte.
type Document struct {
	// Path is the file the document was loaded from.
	Path string
	// Lines holds the raw line content without the trailing newline.
	Lines []string
	// TrailingNewline records whether the file ended with a newline.
	TrailingNewline bool
}

// Pending returns the units that need translation: those with an empty
// target, or every unit when retranslate is set. Units with a non-empty
// target are otherwise never re-translated, which makes reruns no-ops.
func Pending(units []TranslationUnit, retranslate bool) []TranslationUnit {
	var pending []TranslationUnit
	for _, u := range units {
		if retranslate || u.Target == "" {
			pending = append(pending, u)
		}
	}
	return pending
}
