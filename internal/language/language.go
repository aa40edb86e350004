// Package language resolves user-supplied language names or codes to the
// target-language codes the translation API expects.
package language

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// ErrUnknownLanguage wraps a language argument that is neither a known
// spelled-out name nor a parseable BCP-47 tag.
type ErrUnknownLanguage struct {
	Input string
}

func (e *ErrUnknownLanguage) Error() string {
	return fmt.Sprintf("unknown language %q", e.Input)
}

// nameMap maps spelled-out language names to DeepL target codes.
var nameMap = map[string]string{
	"bulgarian":  "BG",
	"czech":      "CS",
	"danish":     "DA",
	"german":     "DE",
	"greek":      "EL",
	"english":    "EN",
	"spanish":    "ES",
	"estonian":   "ET",
	"finnish":    "FI",
	"french":     "FR",
	"hungarian":  "HU",
	"indonesian": "ID",
	"italian":    "IT",
	"japanese":   "JA",
	"korean":     "KO",
	"lithuanian": "LT",
	"latvian":    "LV",
	"norwegian":  "NB",
	"dutch":      "NL",
	"polish":     "PL",
	"portuguese": "PT",
	"romanian":   "RO",
	"russian":    "RU",
	"slovak":     "SK",
	"slovenian":  "SL",
	"swedish":    "SV",
	"turkish":    "TR",
	"ukrainian":  "UK",
	"chinese":    "ZH",
}

// Resolve maps a spelled-out language name or a bare code to the DeepL
// target code. Names are matched case-insensitively; anything else must
// parse as a BCP-47 tag or resolution fails.
func Resolve(input string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	if key == "" {
		return "", &ErrUnknownLanguage{Input: input}
	}

	if code, ok := nameMap[key]; ok {
		return code, nil
	}

	tag, err := language.Parse(key)
	if err != nil {
		return "", &ErrUnknownLanguage{Input: input}
	}

	base, conf := tag.Base()
	if conf == language.No {
		return "", &ErrUnknownLanguage{Input: input}
	}

	return strings.ToUpper(base.String()), nil
}

// Folder returns the tl/ subdirectory name for a language argument: the
// argument as typed, lowercased, matching the Ren'Py translation layout
// where folders carry the spelled-out name (game/tl/german).
func Folder(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// Names returns the known spelled-out names in sorted order.
func Names() []string {
	names := make([]string, 0, len(nameMap))
	for n := range nameMap {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Code returns the DeepL code for a known spelled-out name.
func Code(name string) (string, bool) {
	code, ok := nameMap[strings.ToLower(name)]
	return code, ok
}
