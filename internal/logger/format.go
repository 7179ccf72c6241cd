package logger

import "strings"

// stripAnsiCodes removes pterm's CSI escape sequences (\x1b[...<letter>)
// from s. The rotated log file written via lumberjack has no terminal to
// render colour, so the attrs that flow into that handler go through this
// first rather than writing raw escape bytes into the file.
func stripAnsiCodes(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	inEscape := false
	for i := 0; i < len(s); i++ {
		c := s[i]

		if inEscape {
			// CSI sequences end at the first letter after the ESC '['.
			if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
				inEscape = false
			}
			continue
		}

		if c == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			inEscape = true
			i++ // consume the '['
			continue
		}

		out.WriteByte(c)
	}

	return out.String()
}
