package ui

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Message keys rendered by the repository client and CLI.
const (
	MessageFileIsMissing      = "FILE_IS_MISSING"
	MessageDirectoryIsMissing = "DIRECTORY_IS_MISSING"
	MessageDaysAgo            = "DAYS_AGO"
	MessageCommitDiffResults  = "COMMIT_DIFF_RESULTS"
	MessageUpToDate           = "UP_TO_DATE"
	MessageUpdateAvailable    = "UPDATE_AVAILABLE"
	MessageVersionFileMissing = "VERSION_FILE_MISSING"
	MessageCommitHashWritten  = "COMMIT_HASH_WRITTEN"
	MessageCloneCompleted     = "CLONE_COMPLETED"
)

const (
	// DefaultLanguage is used when the requested language has no catalog entry.
	DefaultLanguage = "en"

	placeholderTemplateConstant             = "{%s}"
	lineTerminatorConstant                  = "\n"
	catalogParseErrorTemplateConstant       = "failed to parse message catalog: %w"
	catalogEmptyMessageConstant             = "message catalog defines no languages"
	languageUnsupportedTemplateConstant     = "language %q is not defined in the message catalog"
	languageSeparatorForErrorsConstant      = ", "
	languageListErrorSuffixTemplateConstant = "%w (available: %s)"
)

//go:embed messages.yaml
var embeddedMessageCatalog []byte

var (
	// ErrEmptyCatalog indicates the catalog content had no languages.
	ErrEmptyCatalog = errors.New(catalogEmptyMessageConstant)

	defaultCatalogOnce  sync.Once
	defaultCatalog      *MessageCatalog
	defaultCatalogError error
)

// MessageFormatter renders a message key with substitutions.
type MessageFormatter interface {
	Message(key string, substitutions map[string]any) string
}

// MessageCatalog stores message templates for a single language.
type MessageCatalog struct {
	language  string
	templates map[string]string
}

// ParseMessageCatalog decodes YAML content of the form language -> key -> template
// and selects the requested language.
func ParseMessageCatalog(content []byte, language string) (*MessageCatalog, error) {
	var languages map[string]map[string]string
	if unmarshalError := yaml.Unmarshal(content, &languages); unmarshalError != nil {
		return nil, fmt.Errorf(catalogParseErrorTemplateConstant, unmarshalError)
	}
	if len(languages) == 0 {
		return nil, ErrEmptyCatalog
	}

	selectedLanguage := strings.ToLower(strings.TrimSpace(language))
	if len(selectedLanguage) == 0 {
		selectedLanguage = DefaultLanguage
	}

	templates, languageExists := languages[selectedLanguage]
	if !languageExists {
		availableLanguages := make([]string, 0, len(languages))
		for availableLanguage := range languages {
			availableLanguages = append(availableLanguages, availableLanguage)
		}
		sort.Strings(availableLanguages)
		unsupportedError := fmt.Errorf(languageUnsupportedTemplateConstant, selectedLanguage)
		return nil, fmt.Errorf(languageListErrorSuffixTemplateConstant, unsupportedError, strings.Join(availableLanguages, languageSeparatorForErrorsConstant))
	}

	return &MessageCatalog{language: selectedLanguage, templates: templates}, nil
}

// LoadMessageCatalog selects a language from the embedded catalog.
func LoadMessageCatalog(language string) (*MessageCatalog, error) {
	return ParseMessageCatalog(embeddedMessageCatalog, language)
}

// DefaultMessageCatalog returns the embedded English catalog.
func DefaultMessageCatalog() (*MessageCatalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogError = LoadMessageCatalog(DefaultLanguage)
	})
	return defaultCatalog, defaultCatalogError
}

// SupportedLanguages lists the languages of the embedded catalog in sorted order.
func SupportedLanguages() []string {
	var languages map[string]map[string]string
	if unmarshalError := yaml.Unmarshal(embeddedMessageCatalog, &languages); unmarshalError != nil {
		return nil
	}
	languageNames := make([]string, 0, len(languages))
	for languageName := range languages {
		languageNames = append(languageNames, languageName)
	}
	sort.Strings(languageNames)
	return languageNames
}

// Language reports the selected catalog language.
func (catalog *MessageCatalog) Language() string {
	return catalog.language
}

// Message renders the template for key. Unknown keys render as the key itself.
func (catalog *MessageCatalog) Message(key string, substitutions map[string]any) string {
	template, templateExists := catalog.templates[key]
	if !templateExists {
		template = key
	}
	if len(substitutions) == 0 {
		return template
	}

	replacements := make([]string, 0, len(substitutions)*2)
	for name, value := range substitutions {
		replacements = append(replacements, fmt.Sprintf(placeholderTemplateConstant, name), fmt.Sprint(value))
	}
	return strings.NewReplacer(replacements...).Replace(template)
}

// Printer writes formatted messages to an output stream.
type Printer struct {
	writer    io.Writer
	formatter MessageFormatter
}

// NewPrinter constructs a Printer. A nil writer discards output.
func NewPrinter(writer io.Writer, formatter MessageFormatter) *Printer {
	if writer == nil {
		writer = io.Discard
	}
	return &Printer{writer: writer, formatter: formatter}
}

// Message renders key without printing it.
func (printer *Printer) Message(key string, substitutions map[string]any) string {
	if printer.formatter == nil {
		return key
	}
	return printer.formatter.Message(key, substitutions)
}

// Print writes the rendered message followed by a newline.
func (printer *Printer) Print(key string, substitutions map[string]any) {
	printer.Println(printer.Message(key, substitutions))
}

// Println writes text verbatim followed by a newline.
func (printer *Printer) Println(text string) {
	_, _ = io.WriteString(printer.writer, text+lineTerminatorConstant)
}
