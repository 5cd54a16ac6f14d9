package repository_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/ghmirror/internal/download"
	"github.com/temirov/ghmirror/internal/filesystem"
	"github.com/temirov/ghmirror/internal/githubapi"
	"github.com/temirov/ghmirror/internal/repository"
	"github.com/temirov/ghmirror/internal/ui"
)

const (
	testIdentityConstant       = "owner/example"
	testMainCommitConstant     = "1111111111111111111111111111111111111111"
	testDevCommitConstant      = "2222222222222222222222222222222222222222"
	testLiveCommitConstant     = "3333333333333333333333333333333333333333"
	testFileContentConstant    = "remote content\n"
	testVersionContentConstant = "1.2.3\nmain\nabcd\n"
)

var testNow = time.Date(2024, time.January, 11, 12, 0, 0, 0, time.UTC)

type fakeGitHub struct {
	mutex     sync.Mutex
	responses map[string]fakeResponse
	requests  map[string]int
}

type fakeResponse struct {
	status int
	body   []byte
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{responses: map[string]fakeResponse{}, requests: map[string]int{}}
}

func (github *fakeGitHub) respond(path string, status int, body string) {
	github.respondBytes(path, status, []byte(body))
}

func (github *fakeGitHub) respondBytes(path string, status int, body []byte) {
	github.mutex.Lock()
	defer github.mutex.Unlock()
	github.responses[path] = fakeResponse{status: status, body: body}
}

func (github *fakeGitHub) requestCount(path string) int {
	github.mutex.Lock()
	defer github.mutex.Unlock()
	return github.requests[path]
}

func (github *fakeGitHub) totalRequests() int {
	github.mutex.Lock()
	defer github.mutex.Unlock()
	total := 0
	for _, count := range github.requests {
		total += count
	}
	return total
}

func (github *fakeGitHub) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	github.mutex.Lock()
	github.requests[request.URL.Path]++
	response, exists := github.responses[request.URL.Path]
	github.mutex.Unlock()

	if !exists {
		writer.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(writer, `{"message":"Not Found"}`)
		return
	}
	writer.WriteHeader(response.status)
	_, _ = writer.Write(response.body)
}

type repositoryFixture struct {
	github           *fakeGitHub
	repository       *repository.Repository
	output           *bytes.Buffer
	workingDirectory string
}

func newRepositoryFixture(testInstance *testing.T, showLastCommits int) repositoryFixture {
	testInstance.Helper()
	return newObservedRepositoryFixture(testInstance, showLastCommits, nil)
}

func newObservedRepositoryFixture(testInstance *testing.T, showLastCommits int, logger *zap.Logger) repositoryFixture {
	testInstance.Helper()

	github := newFakeGitHub()
	server := httptest.NewServer(github)
	testInstance.Cleanup(server.Close)

	client, clientError := githubapi.NewClient(nil, server.Client(), githubapi.Configuration{
		APIBaseURL:     server.URL,
		RawBaseURL:     server.URL,
		ArchiveBaseURL: server.URL,
	})
	require.NoError(testInstance, clientError)

	downloader, downloaderError := download.NewDownloader(nil, client, filesystem.OSFileSystem{}, nil)
	require.NoError(testInstance, downloaderError)

	catalog, catalogError := ui.DefaultMessageCatalog()
	require.NoError(testInstance, catalogError)
	output := &bytes.Buffer{}

	identity, identityError := repository.ParseIdentity(testIdentityConstant)
	require.NoError(testInstance, identityError)

	workingDirectory := testInstance.TempDir()
	instance, repositoryError := repository.NewRepository(identity, repository.Settings{
		ShowLastCommits:  showLastCommits,
		WorkingDirectory: workingDirectory,
	}, repository.Dependencies{
		Client:     client,
		Downloader: downloader,
		FileSystem: filesystem.OSFileSystem{},
		Printer:    ui.NewPrinter(output, catalog),
		Clock:      func() time.Time { return testNow },
		Logger:     logger,
	})
	require.NoError(testInstance, repositoryError)

	return repositoryFixture{github: github, repository: instance, output: output, workingDirectory: workingDirectory}
}

func registerBranches(github *fakeGitHub) {
	github.respond("/repos/owner/example/branches", http.StatusOK, `[
		{"name": "main", "commit": {"sha": "`+testMainCommitConstant+`"}},
		{"name": "dev", "commit": {"sha": "`+testDevCommitConstant+`"}}
	]`)
	github.respond("/repos/owner/example/commits/"+testMainCommitConstant, http.StatusOK, `{
		"sha": "`+testMainCommitConstant+`",
		"commit": {"message": "main head", "author": {"date": "2024-01-01T00:00:00Z"}}
	}`)
	github.respond("/repos/owner/example/commits/"+testDevCommitConstant, http.StatusOK, `{
		"sha": "`+testDevCommitConstant+`",
		"commit": {"message": "dev head", "author": {"date": "2024-01-10T18:00:00+02:00"}}
	}`)
}

func buildArchive(testInstance *testing.T, entries map[string]string) []byte {
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
