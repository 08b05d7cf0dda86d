package media

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimecode converts HH:MM:SS or HH:MM:SS.ms to seconds.
func ParseTimecode(tc string) (float64, error) {
	parts := strings.Split(tc, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timecode %q: want HH:MM:SS[.ms]", tc)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid timecode %q: bad hours", tc)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid timecode %q: bad minutes", tc)
	}
	s, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || s < 0 || s >= 60 {
		return 0, fmt.Errorf("invalid timecode %q: bad seconds", tc)
	}
	return float64(h)*3600 + float64(m)*60 + s, nil
}

// FormatTimecode converts seconds to HH:MM:SS, truncating fractions.
func FormatTimecode(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// TimecodeRange returns end-start in seconds, clamped at zero.
func TimecodeRange(startTC, endTC string) (float64, error) {
	start, err := ParseTimecode(startTC)
	if err != nil {
		return 0, err
	}
	end, err := ParseTimecode(endTC)
	if err != nil {
		return 0, err
	}
	d := end - start
	if d < 0 {
		d = 0
	}
	return d, nil
}
