package engine

import (
	"os"
	"runtime"
	"strings"

	"github.com/aleister1102/cfgswitch/internal/comparator"
	"github.com/fatih/color"
)

// IconSet maps comparison results to the marker shown next to a profile.
// NoMatch never has a marker.
type IconSet struct {
	Name         string
	FullMatch    string
	PartialMatch string
	Error        string
}

var (
	EmojiIcons = IconSet{Name: "emoji", FullMatch: "✅", PartialMatch: "🔄", Error: "❌"}
	ASCIIIcons = IconSet{Name: "ascii", FullMatch: "[=]", PartialMatch: "[~]", Error: "[!]"}
)

// Icon returns the marker for status.
func (s IconSet) Icon(status comparator.Status) string {
	switch status.Kind {
	case comparator.FullMatch:
		return s.FullMatch
	case comparator.PartialMatch:
		return s.PartialMatch
	case comparator.Error:
		return s.Error
	default:
		return ""
	}
}

// SelectIconSet picks the icon set once at startup. "auto" uses emoji only
// on a color-capable terminal outside the legacy Windows console.
func SelectIconSet(preference string) IconSet {
	switch strings.ToLower(preference) {
	case "emoji":
		return EmojiIcons
	case "ascii":
		return ASCIIIcons
	}
	if color.NoColor {
		return ASCIIIcons
	}
	if runtime.GOOS == "windows" && os.Getenv("WT_SESSION") == "" && os.Getenv("TERM_PROGRAM") == "" {
		return ASCIIIcons
	}
	return EmojiIcons
}
