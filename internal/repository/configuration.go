package repository

import (
	"strings"
	"time"

	"github.com/temirov/ghmirror/internal/githubapi"
	"github.com/temirov/ghmirror/internal/ui"
	pathutils "github.com/temirov/ghmirror/internal/utils/path"
)

const (
	defaultShowLastCommitsConstant           = 5
	configurationKeySeparatorConstant        = "."
	nameConfigurationKeyConstant             = "name"
	workingDirectoryConfigurationKeyConstant = "working_directory"
	showLastCommitsConfigurationKeyConstant  = "show_last_commits"
	languageConfigurationKeyConstant         = "language"
	showProgressConfigurationKeyConstant     = "show_progress"
	apiBaseURLConfigurationKeyConstant       = "api_base_url"
	rawBaseURLConfigurationKeyConstant       = "raw_base_url"
	archiveBaseURLConfigurationKeyConstant   = "archive_base_url"
	timeoutConfigurationKeyConstant          = "timeout"
)

// CommandConfiguration captures the repository section of the application configuration.
type CommandConfiguration struct {
	Name             string `mapstructure:"name"`
	WorkingDirectory string `mapstructure:"working_directory"`
	ShowLastCommits  int    `mapstructure:"show_last_commits"`
	Language         string `mapstructure:"language"`
	ShowProgress     bool   `mapstructure:"show_progress"`
}

// GitHubConfiguration captures the endpoints and transport settings used to reach GitHub.
type GitHubConfiguration struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	RawBaseURL     string        `mapstructure:"raw_base_url"`
	ArchiveBaseURL string        `mapstructure:"archive_base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// DefaultCommandConfiguration provides baseline repository settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Name:             "",
		WorkingDirectory: "",
		ShowLastCommits:  defaultShowLastCommitsConstant,
		Language:         ui.DefaultLanguage,
		ShowProgress:     true,
	}
}

// DefaultGitHubConfiguration points at the public GitHub endpoints without a timeout.
func DefaultGitHubConfiguration() GitHubConfiguration {
	return GitHubConfiguration{
		APIBaseURL:     githubapi.DefaultAPIBaseURL,
		RawBaseURL:     githubapi.DefaultRawBaseURL,
		ArchiveBaseURL: githubapi.DefaultArchiveBaseURL,
		Timeout:        0,
	}
}

// DefaultConfigurationValues flattens the defaults under the provided section prefixes.
func DefaultConfigurationValues(repositoryPrefix string, githubPrefix string) map[string]any {
	repositoryDefaults := DefaultCommandConfiguration()
	githubDefaults := DefaultGitHubConfiguration()
	return map[string]any{
		joinConfigurationKey(repositoryPrefix, nameConfigurationKeyConstant):             repositoryDefaults.Name,
		joinConfigurationKey(repositoryPrefix, workingDirectoryConfigurationKeyConstant): repositoryDefaults.WorkingDirectory,
		joinConfigurationKey(repositoryPrefix, showLastCommitsConfigurationKeyConstant):  repositoryDefaults.ShowLastCommits,
		joinConfigurationKey(repositoryPrefix, languageConfigurationKeyConstant):         repositoryDefaults.Language,
		joinConfigurationKey(repositoryPrefix, showProgressConfigurationKeyConstant):     repositoryDefaults.ShowProgress,
		joinConfigurationKey(githubPrefix, apiBaseURLConfigurationKeyConstant):           githubDefaults.APIBaseURL,
		joinConfigurationKey(githubPrefix, rawBaseURLConfigurationKeyConstant):           githubDefaults.RawBaseURL,
		joinConfigurationKey(githubPrefix, archiveBaseURLConfigurationKeyConstant):       githubDefaults.ArchiveBaseURL,
		joinConfigurationKey(githubPrefix, timeoutConfigurationKeyConstant):              githubDefaults.Timeout,
	}
}

// Sanitize trims values, expands a leading tilde in the working directory and
// restores the default language when none is set.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Name = strings.TrimSpace(configuration.Name)
	sanitized.WorkingDirectory = pathutils.NewHomeExpander().Expand(strings.TrimSpace(configuration.WorkingDirectory))
	sanitized.Language = strings.ToLower(strings.TrimSpace(configuration.Language))
	if len(sanitized.Language) == 0 {
		sanitized.Language = ui.DefaultLanguage
	}
	return sanitized
}

// Sanitize trims the configured endpoints and falls back to the public ones when empty.
func (configuration GitHubConfiguration) Sanitize() GitHubConfiguration {
	defaults := DefaultGitHubConfiguration()
	sanitized := configuration
	sanitized.APIBaseURL = valueOrDefault(configuration.APIBaseURL, defaults.APIBaseURL)
	sanitized.RawBaseURL = valueOrDefault(configuration.RawBaseURL, defaults.RawBaseURL)
	sanitized.ArchiveBaseURL = valueOrDefault(configuration.ArchiveBaseURL, defaults.ArchiveBaseURL)
	if sanitized.Timeout < 0 {
		sanitized.Timeout = 0
	}
	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}

func joinConfigurationKey(prefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + configurationKeySeparatorConstant + key
}
