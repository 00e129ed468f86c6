package summarizer

import "regexp"

// formatRules are applied in order by FormatMarkdown.
var formatRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	// Promote standalone section names to headers.
	{regexp.MustCompile(`(?m)(^|\n)(Overview|Key Points?|Conclusion|Summary|Introduction|Background|Main Points?|Key Concepts?|Significance|Impact)(\n|$)`), "${1}## ${2}${3}"},
	// Blank line before headers.
	{regexp.MustCompile(`([^\n])##`), "${1}\n\n##"},
	// Blank line after headers.
	{regexp.MustCompile(`(##[^\n]+)`), "${1}\n\n"},
	// "**Key**: text" lines become bullets.
	{regexp.MustCompile(`(?m)(^|\n)(\*\*[^*]+\*\*:)`), "${1}- ${2}"},
	// Blank line before a bullet list.
	{regexp.MustCompile(`([^\n])(- \*\*)`), "${1}\n\n${2}"},
	// Blank line after the last bullet of a list.
	{regexp.MustCompile(`(\n- [^\n]+)(\n[^-\n])`), "${1}\n${2}"},
	// Markdown renderers mis-parse three or more consecutive newlines.
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// FormatMarkdown normalizes model output into well spaced Markdown: section
// names become headers, headers and lists are surrounded by blank lines, and
// runs of blank lines collapse to one.
func FormatMarkdown(text string) string {
	for _, rule := range formatRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return text
}
