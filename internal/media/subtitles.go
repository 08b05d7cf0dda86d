package media

import (
	"fmt"
	"strings"

	"github.com/Cascapera/social-automation/internal/models"
)

func secToSRT(sec float64) string {
	h := int(sec) / 3600
	m := (int(sec) % 3600) / 60
	s := int(sec) % 60
	ms := int((sec - float64(int(sec))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func secToASS(sec float64) string {
	h := int(sec) / 3600
	m := (int(sec) % 3600) / 60
	s := int(sec) % 60
	cs := int((sec - float64(int(sec))) * 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// SegmentsToSRT renders segments as an SRT document. Segments with
// empty text are skipped.
func SegmentsToSRT(segments []models.SubtitleSegment) string {
	var b strings.Builder
	i := 1
	for _, seg := range segments {
		text := strings.ReplaceAll(seg.Text, "\n", " ")
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i, secToSRT(seg.Start), secToSRT(seg.End), text)
		i++
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func escapeASS(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, "{", `\{`)
	return strings.ReplaceAll(text, "}", `\}`)
}

// SegmentsToASS renders segments as an ASS document with the
// word-accumulating animation: each dialogue line shows the text
// accumulated up to that word, starting at the word's timestamp.
// Segments without word timings fall back to one line per segment.
func SegmentsToASS(segments []models.SubtitleSegment) string {
	var b strings.Builder
	b.WriteString("[Script Info]\nScriptType: v4.00+\n\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, OutlineColour, BorderStyle, Outline, Shadow, Alignment, MarginV\n")
	b.WriteString("Style: Default,Arial,24,&H00FFFFFF,&H00000000,1,2,1,2,20\n\n")
	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, seg := range segments {
		text := strings.ReplaceAll(seg.Text, "\n", " ")
		if text == "" {
			continue
		}
		if len(seg.Words) == 0 {
			fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
				secToASS(seg.Start), secToASS(seg.End), escapeASS(text))
			continue
		}
		accumulated := ""
		for i, w := range seg.Words {
			word := strings.TrimSpace(w.Word)
			if word == "" {
				continue
			}
			if accumulated == "" {
				accumulated = word
			} else {
				accumulated += " " + word
			}
			end := seg.End
			if i+1 < len(seg.Words) {
				end = seg.Words[i+1].Start
			}
			fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
				secToASS(w.Start), secToASS(end), escapeASS(accumulated))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// hexToASSColor converts #RRGGBB to the ASS &HAABBGGRR form.
func hexToASSColor(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return "&H00FFFFFF"
	}
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return "&H00FFFFFF"
	}
	return fmt.Sprintf("&H00%02X%02X%02X", b, g, r)
}

// ForceStyle builds the force_style string passed to ffmpeg's
// subtitles filter.
func ForceStyle(style models.SubtitleStyle) string {
	font := style.Font
	if font == "" {
		font = "Arial"
	}
	size := style.Size
	if size == 0 {
		size = 24
	}
	outline := style.Outline
	if outline == 0 {
		outline = 2
	}
	alignment := map[string]int{"bottom": 2, "center": 5, "top": 8}[style.Position]
	if alignment == 0 {
		alignment = 2
	}
	return fmt.Sprintf(
		"FontName=%s,FontSize=%d,PrimaryColour=%s,OutlineColour=%s,BorderStyle=1,Outline=%d,Shadow=1,Alignment=%d,MarginV=20",
		font, size, hexToASSColor(style.Color), hexToASSColor(style.OutlineColor), outline, alignment,
	)
}
