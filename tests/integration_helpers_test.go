package tests

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

const (
	integrationBinaryNameConstant     = "ghmirror"
	integrationCommandTimeout         = 30 * time.Second
	integrationConfigFileNameConstant = "config.yaml"
	integrationConfigFlagTemplate     = "--config=%s"
	integrationNotFoundBodyConstant   = `{"message":"Not Found"}`
	integrationConfigurationTemplate  = `common:
  log_level: %s
repository:
  name: owner/example
  working_directory: %s
  show_progress: false
github:
  api_base_url: %s
  raw_base_url: %s
  archive_base_url: %s
`
)

var (
	integrationBinaryOnce  sync.Once
	integrationBinaryPath  string
	integrationBinaryError error
)

// buildIntegrationBinary compiles the CLI once per test run.
func buildIntegrationBinary(testInstance *testing.T) string {
	testInstance.Helper()

	integrationBinaryOnce.Do(func() {
		currentWorkingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			integrationBinaryError = workingDirectoryError
			return
		}
		binaryDirectory, directoryError := os.MkdirTemp("", "ghmirror-integration-*")
		if directoryError != nil {
			integrationBinaryError = directoryError
			return
		}

		integrationBinaryPath = filepath.Join(binaryDirectory, integrationBinaryNameConstant)
		executionContext, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		command := exec.CommandContext(executionContext, "go", "build", "-o", integrationBinaryPath, ".")
		command.Dir = filepath.Dir(currentWorkingDirectory)
		if outputBytes, buildError := command.CombinedOutput(); buildError != nil {
			integrationBinaryError = fmt.Errorf("%w: %s", buildError, outputBytes)
		}
	})

	require.NoError(testInstance, integrationBinaryError)
	return integrationBinaryPath
}

type integrationResult struct {
	stdout string
	stderr string
	err    error
}

// runIntegrationBinary executes the CLI in workingDirectory with extra environment assignments.
func runIntegrationBinary(testInstance *testing.T, workingDirectory string, environment []string, arguments ...string) integrationResult {
	testInstance.Helper()

	binaryPath := buildIntegrationBinary(testInstance)
	executionContext, cancel := context.WithTimeout(context.Background(), integrationCommandTimeout)
	defer cancel()

	command := exec.CommandContext(executionContext, binaryPath, arguments...)
	command.Dir = workingDirectory
	command.Env = append(append([]string{}, os.Environ()...), environment...)

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	runError := command.Run()
	return integrationResult{stdout: stdout.String(), stderr: stderr.String(), err: runError}
}

// writeIntegrationConfiguration points the CLI at server and returns the config flag.
func writeIntegrationConfiguration(testInstance *testing.T, logLevel string, workingDirectory string, serverURL string) string {
	testInstance.Helper()

	configurationPath := filepath.Join(testInstance.TempDir(), integrationConfigFileNameConstant)
	configurationContent := fmt.Sprintf(integrationConfigurationTemplate, logLevel, workingDirectory, serverURL, serverURL, serverURL)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))
	return fmt.Sprintf(integrationConfigFlagTemplate, configurationPath)
}

// integrationGitHub serves canned GitHub responses keyed by request path.
type integrationGitHub struct {
	mutex          sync.Mutex
	responses      map[string][]byte
	authorizations []string
}

func newIntegrationGitHub(testInstance *testing.T) (*integrationGitHub, string) {
	testInstance.Helper()

	github := &integrationGitHub{responses: map[string][]byte{}}
	server := httptest.NewServer(github)
	testInstance.Cleanup(server.Close)
	return github, server.URL
}

func (github *integrationGitHub) respond(path string, body []byte) {
	github.mutex.Lock()
	defer github.mutex.Unlock()
	github.responses[path] = body
}

func (github *integrationGitHub) recordedAuthorizations() []string {
	github.mutex.Lock()
	defer github.mutex.Unlock()
	return append([]string{}, github.authorizations...)
}

func (github *integrationGitHub) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	github.mutex.Lock()
	github.authorizations = append(github.authorizations, request.Header.Get("Authorization"))
	body, exists := github.responses[request.URL.Path]
	github.mutex.Unlock()

	if !exists {
		writer.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(writer, integrationNotFoundBodyConstant)
		return
	}
	_, _ = writer.Write(body)
}

func buildIntegrationArchive(testInstance *testing.T, entries map[string]string) []byte {
	testInstance.Helper()

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for entryName, entryContent := range entries {
		entryWriter, createError := writer.Create(entryName)
		require.NoError(testInstance, createError)
		_, writeError := io.WriteString(entryWriter, entryContent)
		require.NoError(testInstance, writeError)
	}
	require.NoError(testInstance, writer.Close())
	return buffer.Bytes()
}

func filterStructuredOutput(rawOutput string) string {
	var filtered []string
	for _, line := range strings.Split(rawOutput, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, "{") {
			continue
		}
		filtered = append(filtered, line)
	}
	if len(filtered) == 0 {
		return ""
	}
	return strings.Join(filtered, "\n") + "\n"
}
