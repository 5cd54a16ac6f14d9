// Package ui provides helpers for formatting human-readable console output.
//
// A MessageCatalog holds localized message templates keyed by language and
// message key, loaded from YAML. A Printer renders catalog messages with
// {placeholder} substitutions to a writer so that user-facing feedback stays
// separate from the structured diagnostic logs.
package ui
