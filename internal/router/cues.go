package router

import "strings"

// Cue lists for intent classification. Matching is case-insensitive
// substring containment; the lists are deliberately small and ordered
// only for readability, since any single hit counts.
var (
	styleCues = []string{
		"style",
		"like this",
		"similar to",
		"in this style",
		"reference",
	}

	editCues = []string{
		"edit",
		"change",
		"modify",
		"add",
		"remove",
		"make it",
		"give it",
		"now",
		"also",
	}
)

func matchesAny(text string, cues []string) bool {
	lower := strings.ToLower(text)
	for _, cue := range cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// HasStyleCue reports whether the text reads as a style-reference
// request ("apply this style", "similar to", ...).
func HasStyleCue(text string) bool {
	return matchesAny(text, styleCues)
}

// HasEditCue reports whether the text reads as a follow-up edit of the
// previous result ("now add...", "change the...", ...).
func HasEditCue(text string) bool {
	return matchesAny(text, editCues)
}
