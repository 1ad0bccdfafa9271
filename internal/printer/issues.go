package printer

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/gnoswap-labs/gotoconv/internal/diag"
)

const tabWidth = 8

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warningStyle = color.New(color.FgHiYellow, color.Bold)
	ruleStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
)

// Source holds the lines of a source file.
type Source struct {
	Lines []string
}

// ReadSource reads the content of a file and returns it as a Source.
func ReadSource(filename string) (*Source, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return &Source{Lines: strings.Split(string(content), "\n")}, nil
}

// FormatIssues renders issues with the offending source line and an arrow
// under the reported column. Issues without a usable line get the header
// and message only.
func FormatIssues(issues []diag.Issue, src *Source) string {
	var builder strings.Builder
	for _, issue := range issues {
		builder.WriteString(formatIssueHeader(issue))
		builder.WriteString(formatIssueBody(issue, src))
	}
	return builder.String()
}

func formatIssueHeader(issue diag.Issue) string {
	style := errorStyle
	if issue.Severity != diag.SeverityError {
		style = warningStyle
	}
	location := issue.Filename
	if issue.Start.Line > 0 {
		location = fmt.Sprintf("%s:%d:%d", issue.Filename, issue.Start.Line, issue.Start.Column)
	}
	return style.Sprintf("%s: ", issue.Severity) + ruleStyle.Sprint(issue.Rule) + "\n" +
		lineStyle.Sprint(" --> ") + fileStyle.Sprint(location) + "\n"
}

func formatIssueBody(issue diag.Issue, src *Source) string {
	var result strings.Builder

	if src == nil || issue.Start.Line < 1 || issue.Start.Line > len(src.Lines) {
		result.WriteString(messageStyle.Sprintf("  %s\n\n", issue.Message))
		return result.String()
	}

	lineNumberStr := fmt.Sprintf("%d", issue.Start.Line)
	padding := strings.Repeat(" ", len(lineNumberStr)-1)
	result.WriteString(lineStyle.Sprintf("  %s|\n", padding))

	line := expandTabs(src.Lines[issue.Start.Line-1])
	result.WriteString(lineStyle.Sprintf("%d | ", issue.Start.Line))
	result.WriteString(line + "\n")

	visualColumn := calculateVisualColumn(src.Lines[issue.Start.Line-1], issue.Start.Column)
	result.WriteString(lineStyle.Sprintf("  %s| ", padding))
	result.WriteString(strings.Repeat(" ", visualColumn))
	result.WriteString(messageStyle.Sprintf("^ %s\n\n", issue.Message))

	return result.String()
}

func expandTabs(line string) string {
	var expanded strings.Builder
	col := 0
	for _, ch := range line {
		if ch == '\t' {
			spaceCount := tabWidth - (col % tabWidth)
			expanded.WriteString(strings.Repeat(" ", spaceCount))
			col += spaceCount
			continue
		}
		expanded.WriteRune(ch)
		col++
	}
	return expanded.String()
}

func calculateVisualColumn(line string, column int) int {
	visualColumn := 0
	for i, ch := range line {
		if i+1 == column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}
