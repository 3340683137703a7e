package normalize

import "strings"

// BoilerplateBlankLines is the run of blank lines that separates ad text from site footer
const BoilerplateBlankLines = 3

// CleanDescription cuts raw text at the first run of BoilerplateBlankLines or more
// blank lines following real content, then trims and NFC-normalizes it.
func CleanDescription(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	blank := 0
	content := false
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			content = true
			blank = 0
			continue
		}
		if !content {
			continue
		}
		blank++
		if blank == BoilerplateBlankLines {
			lines = lines[:i-blank+1]
			break
		}
	}

	return NFC(strings.TrimSpace(strings.Join(lines, "\n")))
}
