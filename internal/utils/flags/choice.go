// Package flags provides flag helpers shared by the ghmirror commands.
package flags

import (
	"fmt"
	"strings"
)

const (
	choiceSeparatorConstant          = "|"
	choicePlaceholderTemplate        = "`<%s>`"
	choiceUsageWithDescriptionFormat = "%s %s"
)

// FormatChoiceUsage renders "`<a|B|c>` description" with the default choice upper-cased.
// Blank and repeated choices are dropped.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	rendered := make([]string, 0, len(choices))
	seen := make(map[string]bool, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(normalizedChoice) == 0 || seen[normalizedChoice] {
			continue
		}
		seen[normalizedChoice] = true
		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		rendered = append(rendered, trimmedChoice)
	}

	placeholder := fmt.Sprintf(choicePlaceholderTemplate, strings.Join(rendered, choiceSeparatorConstant))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return placeholder
	}
	return fmt.Sprintf(choiceUsageWithDescriptionFormat, placeholder, trimmedDescription)
}
