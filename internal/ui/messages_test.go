package ui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghmirror/internal/ui"
)

const testCatalogContentConstant = `
en:
  GREETING: "Hello {name}, you have {count} items"
  PLAIN: "No placeholders"
de:
  GREETING: "Hallo {name}"
`

func TestParseMessageCatalog(testInstance *testing.T) {
	testCases := []struct {
		name          string
		content       string
		language      string
		expectError   bool
		expectedError error
		key           string
		substitutions map[string]any
		expected      string
	}{
		{
			name:          "renders_placeholders",
			content:       testCatalogContentConstant,
			language:      "en",
			key:           "GREETING",
			substitutions: map[string]any{"name": "octocat", "count": 3},
			expected:      "Hello octocat, you have 3 items",
		},
		{
			name:     "empty_language_defaults_to_english",
			content:  testCatalogContentConstant,
			language: " ",
			key:      "PLAIN",
			expected: "No placeholders",
		},
		{
			name:          "language_is_case_insensitive",
			content:       testCatalogContentConstant,
			language:      "DE",
			key:           "GREETING",
			substitutions: map[string]any{"name": "octocat"},
			expected:      "Hallo octocat",
		},
		{
			name:     "unknown_key_renders_key",
			content:  testCatalogContentConstant,
			language: "en",
			key:      "MISSING_KEY",
			expected: "MISSING_KEY",
		},
		{
			name:        "unknown_language",
			content:     testCatalogContentConstant,
			language:    "fr",
			expectError: true,
		},
		{
			name:          "empty_catalog",
			content:       "",
			language:      "en",
			expectError:   true,
			expectedError: ui.ErrEmptyCatalog,
		},
		{
			name:        "invalid_yaml",
			content:     "en: [unterminated",
			language:    "en",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			catalog, parseError := ui.ParseMessageCatalog([]byte(testCase.content), testCase.language)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				if testCase.expectedError != nil {
					require.ErrorIs(testInstance, parseError, testCase.expectedError)
				}
				return
			}

			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, catalog.Message(testCase.key, testCase.substitutions))
		})
	}
}

func TestEmbeddedCatalogDefinesEveryMessage(testInstance *testing.T) {
	messageKeys := []string{
		ui.MessageFileIsMissing,
		ui.MessageDirectoryIsMissing,
		ui.MessageDaysAgo,
		ui.MessageCommitDiffResults,
		ui.MessageUpToDate,
		ui.MessageUpdateAvailable,
		ui.MessageVersionFileMissing,
		ui.MessageCommitHashWritten,
		ui.MessageCloneCompleted,
	}

	require.Equal(testInstance, []string{"en", "ru"}, ui.SupportedLanguages())
	for _, language := range ui.SupportedLanguages() {
		catalog, loadError := ui.LoadMessageCatalog(language)
		require.NoError(testInstance, loadError)
		require.Equal(testInstance, language, catalog.Language())
		for _, messageKey := range messageKeys {
			require.NotEqual(testInstance, messageKey, catalog.Message(messageKey, nil), "%s missing in %s", messageKey, language)
		}
	}

	catalog, loadError := ui.DefaultMessageCatalog()
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "4 days ago", catalog.Message(ui.MessageDaysAgo, map[string]any{"days": 4}))
}

func TestPrinter(testInstance *testing.T) {
	catalog, parseError := ui.ParseMessageCatalog([]byte(testCatalogContentConstant), "en")
	require.NoError(testInstance, parseError)

	var output bytes.Buffer
	printer := ui.NewPrinter(&output, catalog)
	printer.Print("GREETING", map[string]any{"name": "octocat", "count": 1})
	printer.Println("[+] verbatim")

	require.Equal(testInstance, "Hello octocat, you have 1 items\n[+] verbatim\n", output.String())

	silentPrinter := ui.NewPrinter(nil, nil)
	require.Equal(testInstance, "GREETING", silentPrinter.Message("GREETING", nil))
	silentPrinter.Print("GREETING", nil)
}
