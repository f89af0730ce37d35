package si

import "strings"

// TextToMarkup wraps every line of text in a paragraph tag, which is how the
// service expects rich text content.
func TextToMarkup(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("<p>")
		b.WriteString(line)
		b.WriteString("</p>")
	}
	return b.String()
}
