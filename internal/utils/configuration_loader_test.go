package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghmirror/internal/utils"
)

const (
	testEnvironmentPrefixConstant     = "TESTGHMIRROR"
	testLogLevelKeyConstant           = "common.log_level"
	testTimeoutKeyConstant            = "github.timeout"
	testDefaultLogLevelConstant       = "info"
	testConfigFileNameConstant        = "config.yaml"
	testConfigContentTemplateConstant = "common:\n  log_level: %s\n"
	testConfigurationNameConstant     = "config"
	testConfigurationTypeConstant     = "yaml"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
	GitHub configurationGitHubFixture `mapstructure:"github"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationGitHubFixture struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Hosts   []string      `mapstructure:"hosts"`
}

func TestConfigurationLoaderPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedLogLevel    string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{name: "defaults_apply", expectedLogLevel: testDefaultLogLevelConstant},
		{name: "embedded_overrides_defaults", embeddedLogLevel: "debug", expectedLogLevel: "debug"},
		{name: "file_overrides_embedded", embeddedLogLevel: "debug", fileLogLevel: "warn", expectedLogLevel: "warn"},
		{name: "environment_overrides_file", embeddedLogLevel: "debug", fileLogLevel: "warn", environmentLogLevel: "error", expectedLogLevel: "error"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			temporaryDirectory := testInstance.TempDir()
			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{temporaryDirectory})

			if len(testCase.embeddedLogLevel) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedLogLevel)), testConfigurationTypeConstant)
			}

			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = filepath.Join(temporaryDirectory, "custom.yaml")
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel)), 0o600))
			}

			if len(testCase.environmentLogLevel) > 0 {
				testInstance.Setenv(configurationLoader.EnvironmentVariableName(testLogLevelKeyConstant), testCase.environmentLogLevel)
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant}, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)
			require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderFindsFileOnSearchPath(testInstance *testing.T) {
	firstDirectory := testInstance.TempDir()
	secondDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(secondDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(fmt.Sprintf(testConfigContentTemplateConstant, "debug")), 0o600))

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{firstDirectory, secondDirectory})

	loadedConfiguration := configurationFixture{}
	metadata, loadError := configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "debug", loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
}

func TestConfigurationLoaderDecodesDurationsAndLists(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
	configurationLoader.SetEmbeddedConfiguration([]byte("github:\n  timeout: 30s\n  hosts: api.github.com,raw.githubusercontent.com\n"), testConfigurationTypeConstant)

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 30*time.Second, loadedConfiguration.GitHub.Timeout)
	require.Equal(testInstance, []string{"api.github.com", "raw.githubusercontent.com"}, loadedConfiguration.GitHub.Hosts)

	testInstance.Setenv(configurationLoader.EnvironmentVariableName(testTimeoutKeyConstant), "2m")
	_, loadError = configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 2*time.Minute, loadedConfiguration.GitHub.Timeout)
}

func TestConfigurationLoaderRejectsMissingExplicitFile(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration(filepath.Join(testInstance.TempDir(), "absent.yaml"), nil, &loadedConfiguration)
	require.Error(testInstance, loadError)
}

func TestEnvironmentVariableName(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, "GHMIRROR", nil)
	require.Equal(testInstance, "GHMIRROR_REPOSITORY_SHOW_LAST_COMMITS", configurationLoader.EnvironmentVariableName("repository.show_last_commits"))
}
