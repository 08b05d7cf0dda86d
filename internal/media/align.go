package media

import (
	"strings"

	"github.com/Cascapera/social-automation/internal/models"
)

// AlignWords maps an edited segment text onto the original word
// timestamps so animated subtitles survive editing. Same token count
// keeps original timings 1:1; more tokens split the segment span
// proportionally by token length; fewer tokens group original words.
// Returns nil when alignment is not possible.
func AlignWords(editedText string, original []models.WordTiming) []models.WordTiming {
	if len(original) == 0 {
		return nil
	}
	tokens := strings.Fields(editedText)
	if len(tokens) == 0 {
		return nil
	}

	segStart := original[0].Start
	segEnd := original[len(original)-1].End
	totalDur := segEnd - segStart

	if len(tokens) == len(original) {
		out := make([]models.WordTiming, len(tokens))
		for i, tok := range tokens {
			out[i] = models.WordTiming{Start: original[i].Start, End: original[i].End, Word: tok}
		}
		return out
	}

	if len(tokens) > len(original) {
		totalChars := 0
		for _, tok := range tokens {
			totalChars += len(tok)
		}
		if totalChars == 0 {
			totalChars = 1
		}
		out := make([]models.WordTiming, 0, len(tokens))
		t := segStart
		for i, tok := range tokens {
			end := segEnd
			if i < len(tokens)-1 {
				end = t + totalDur*float64(len(tok))/float64(totalChars)
			}
			out = append(out, models.WordTiming{Start: t, End: end, Word: tok})
			t = end
		}
		return out
	}

	nOrig, nEdit := len(original), len(tokens)
	out := make([]models.WordTiming, 0, nEdit)
	for i, tok := range tokens {
		j0 := i * nOrig / nEdit
		j1 := (i + 1) * nOrig / nEdit
		if j1 > nOrig {
			j1 = nOrig
		}
		if j1 <= j0 {
			j1 = j0 + 1
		}
		out = append(out, models.WordTiming{Start: original[j0].Start, End: original[j1-1].End, Word: tok})
	}
	return out
}
