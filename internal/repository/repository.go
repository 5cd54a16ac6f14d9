package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/ghmirror/internal/filesystem"
	"github.com/temirov/ghmirror/internal/ui"
	"github.com/temirov/ghmirror/internal/version"
)

const (
	treeEndpointTemplateConstant           = "%s/git/trees/%s?recursive=true"
	commitEndpointTemplateConstant         = "%s/commits/%s"
	branchesEndpointTemplateConstant       = "%s/branches"
	branchEndpointTemplateConstant         = "%s/branches/%s"
	compareEndpointTemplateConstant        = "%s/compare/%s...%s"
	treeDocumentNameConstant               = "tree response"
	branchListDocumentNameConstant         = "branch list"
	branchDocumentNameConstant             = "branch response"
	commitDocumentNameConstant             = "commit response"
	comparisonDocumentNameConstant         = "compare response"
	branchLabelTemplateConstant            = "%s [%s]"
	commitLineTemplateConstant             = "[+] %s"
	cloneDestinationTemplateConstant       = "%s %s"
	extractedFolderTemplateConstant        = "%s-%s"
	archiveNameTemplateConstant            = "%s.zip"
	branchPathSeparatorConstant            = "/"
	archiveBranchSeparatorConstant         = "-"
	commitHashFieldConstant                = "sha"
	hoursPerDayConstant                    = 24
	directoryPermissionsConstant           = 0o755
	substitutionFileConstant               = "file"
	substitutionDirectoryConstant          = "directory"
	substitutionDaysConstant               = "days"
	substitutionAheadCommitsConstant       = "ahead_commits"
	substitutionLastCountConstant          = "last_count"
	substitutionBranchConstant             = "branch"
	substitutionCommitConstant             = "commit"
	substitutionLocalConstant              = "local"
	substitutionRemoteConstant             = "remote"
	clientMissingMessageConstant           = "github client not configured"
	downloaderMissingMessageConstant       = "downloader not configured"
	fileSystemMissingMessageConstant       = "file system not configured"
	versionNotFoundMessageConstant         = "version file not found"
	unexpectedPayloadMessageConstant       = "unexpected github response shape"
	versionBranchMissingMessageConstant    = "version file does not name a branch"
	versionNotFoundTemplateConstant        = "%w: %s returned HTTP %d"
	unexpectedPayloadTemplateConstant      = "%w: %s returned %T"
	commitDateParseErrorTemplateConstant   = "unable to parse commit date %q for branch %s: %w"
	fetchTreeErrorTemplateConstant         = "unable to fetch tree for %s: %w"
	fetchBranchesErrorTemplateConstant     = "unable to list branches of %s: %w"
	fetchCommitErrorTemplateConstant       = "unable to fetch commit %s: %w"
	fetchBranchErrorTemplateConstant       = "unable to fetch branch %s: %w"
	fetchComparisonErrorTemplateConstant   = "unable to compare %s...%s: %w"
	fetchVersionErrorTemplateConstant      = "unable to fetch version of %s: %w"
	inspectPathErrorTemplateConstant       = "unable to inspect %s: %w"
	createDirectoryErrorTemplateConstant   = "unable to create directory %s: %w"
	downloadFileErrorTemplateConstant      = "unable to download %s: %w"
	downloadArchiveErrorTemplateConstant   = "unable to download archive for %s: %w"
	removeDestinationErrorTemplateConstant = "unable to remove %s: %w"
	renameFolderErrorTemplateConstant      = "unable to rename %s to %s: %w"
	treeFetchedMessageConstant             = "tree fetched"
	directoryCreatedMessageConstant        = "directory created"
	fileDownloadedMessageConstant          = "file downloaded"
	submoduleSkippedMessageConstant        = "submodule entry skipped"
	branchesCachedMessageConstant          = "branch cache replaced"
	latestCommitFromCacheMessageConstant   = "latest commit served from cache"
	destinationRemovedMessageConstant      = "existing clone destination removed"
	cloneCompletedMessageConstant          = "branch cloned"
	logFieldRepositoryConstant             = "repository"
	logFieldBranchConstant                 = "branch"
	logFieldPathConstant                   = "path"
	logFieldEntriesConstant                = "entries"
	logFieldBranchCountConstant            = "branch_count"
	logFieldDestinationConstant            = "destination"
)

var (
	// ErrClientNotConfigured indicates the repository was constructed without a GitHub client.
	ErrClientNotConfigured = errors.New(clientMissingMessageConstant)

	// ErrDownloaderNotConfigured indicates the repository was constructed without a downloader.
	ErrDownloaderNotConfigured = errors.New(downloaderMissingMessageConstant)

	// ErrFileSystemNotConfigured indicates the repository was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

	// ErrVersionNotFound indicates the raw version file request returned a non-success status.
	ErrVersionNotFound = errors.New(versionNotFoundMessageConstant)

	// ErrUnexpectedPayload indicates a JSON response did not have the documented shape.
	ErrUnexpectedPayload = errors.New(unexpectedPayloadMessageConstant)

	// ErrVersionBranchMissing indicates an update check on a version without a branch line.
	ErrVersionBranchMissing = errors.New(versionBranchMissingMessageConstant)
)

// RemoteClient issues GitHub API and raw content requests.
type RemoteClient interface {
	GetJSON(executionContext context.Context, endpoint string) (any, error)
	GetRaw(executionContext context.Context, url string) ([]byte, int, error)
	RawContentURL(repository string, branch string, filePath string) string
	ArchiveURL(repository string, branch string) string
}

// Downloader transfers remote files and archives onto disk.
type Downloader interface {
	DownloadFile(executionContext context.Context, url string, destinationPath string) error
	DownloadAndExtract(executionContext context.Context, url string, archiveName string, destinationDirectory string) error
	RemoveAll(path string) error
}

// MessagePrinter renders localized messages for the user.
type MessagePrinter interface {
	Message(key string, substitutions map[string]any) string
	Print(key string, substitutions map[string]any)
	Println(text string)
}

// Clock reports the current time.
type Clock func() time.Time

// Settings carries the user-tunable behavior of a Repository.
type Settings struct {
	// ShowLastCommits limits the commit messages printed by DiffCommits. Zero or less prints all of them.
	ShowLastCommits int
	// WorkingDirectory roots the mirrored tree and clone destinations. Empty means the process directory.
	WorkingDirectory string
}

// Dependencies enumerates the collaborators of a Repository.
type Dependencies struct {
	Client     RemoteClient
	Downloader Downloader
	FileSystem filesystem.FileSystem
	Printer    MessagePrinter
	Clock      Clock
	Logger     *zap.Logger
}

// Repository is a GitHub client bound to a single owner/name repository.
type Repository struct {
	identity   Identity
	settings   Settings
	client     RemoteClient
	downloader Downloader
	fileSystem filesystem.FileSystem
	printer    MessagePrinter
	clock      Clock
	logger     *zap.Logger
	cache      *metadataCache
}

// NewRepository validates dependencies and binds them to identity.
func NewRepository(identity Identity, settings Settings, dependencies Dependencies) (*Repository, error) {
	if len(identity.owner) == 0 || len(identity.name) == 0 {
		return nil, fmt.Errorf(invalidIdentityErrorTemplateConstant, ErrInvalidIdentity, identity.String())
	}
	if dependencies.Client == nil {
		return nil, ErrClientNotConfigured
	}
	if dependencies.Downloader == nil {
		return nil, ErrDownloaderNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}

	printer := dependencies.Printer
	if printer == nil {
		printer = ui.NewPrinter(nil, nil)
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Repository{
		identity:   identity,
		settings:   settings,
		client:     dependencies.Client,
		downloader: dependencies.Downloader,
		fileSystem: dependencies.FileSystem,
		printer:    printer,
		clock:      clock,
		logger:     logger.With(zap.String(logFieldRepositoryConstant, identity.String())),
		cache:      newMetadataCache(),
	}, nil
}

// Identity returns the repository identity.
func (repository *Repository) Identity() Identity {
	return repository.identity
}

// RepositoryName returns the name part of the identity.
func (repository *Repository) RepositoryName() string {
	return repository.identity.RepositoryName()
}

// DownloadURL composes the raw content URL of path on branch.
func (repository *Repository) DownloadURL(branch string, path string) string {
	return repository.client.RawContentURL(repository.identity.String(), branch, path)
}

// GetTree fetches the recursive git tree of branch.
func (repository *Repository) GetTree(executionContext context.Context, branch string) (Tree, error) {
	payload, requestError := repository.client.GetJSON(executionContext, fmt.Sprintf(treeEndpointTemplateConstant, repository.identity, branch))
	if requestError != nil {
		return Tree{}, fmt.Errorf(fetchTreeErrorTemplateConstant, branch, requestError)
	}

	var document treeDocument
	if decodeError := decodeDocument(treeDocumentNameConstant, payload, &document); decodeError != nil {
		return Tree{}, decodeError
	}

	tree := Tree{Entries: make([]TreeEntry, 0, len(document.Tree))}
	for _, item := range document.Tree {
		tree.Entries = append(tree.Entries, TreeEntry{Path: item.Path, Kind: item.Type})
	}

	repository.logger.Debug(treeFetchedMessageConstant, zap.String(logFieldBranchConstant, branch), zap.Int(logFieldEntriesConstant, len(tree.Entries)))
	return tree, nil
}

// CompareTree restores every tree entry of branch that is missing under the
// working directory. Existing paths are neither overwritten nor removed.
func (repository *Repository) CompareTree(executionContext context.Context, branch string) (CompareResult, error) {
	tree, treeError := repository.GetTree(executionContext, branch)
	if treeError != nil {
		return CompareResult{}, treeError
	}

	var result CompareResult
	for _, entry := range tree.Entries {
		localPath := repository.localPath(entry.Path)
		exists, existsError := repository.fileSystem.Exists(localPath)
		if existsError != nil {
			return result, fmt.Errorf(inspectPathErrorTemplateConstant, localPath, existsError)
		}
		if exists {
			continue
		}

		switch entry.Kind {
		case TreeKindDirectory:
			repository.printer.Print(ui.MessageDirectoryIsMissing, map[string]any{substitutionDirectoryConstant: entry.Path})
			if mkdirError := repository.fileSystem.MkdirAll(localPath, directoryPermissionsConstant); mkdirError != nil {
				return result, fmt.Errorf(createDirectoryErrorTemplateConstant, localPath, mkdirError)
			}
			repository.logger.Info(directoryCreatedMessageConstant, zap.String(logFieldPathConstant, localPath))
			result.CreatedDirectories = append(result.CreatedDirectories, entry.Path)
		case TreeKindSubmodule:
			repository.logger.Info(submoduleSkippedMessageConstant, zap.String(logFieldPathConstant, entry.Path))
			result.SkippedEntries = append(result.SkippedEntries, entry.Path)
		default:
			repository.printer.Print(ui.MessageFileIsMissing, map[string]any{substitutionFileConstant: entry.Path})
			if downloadError := repository.downloader.DownloadFile(executionContext, repository.DownloadURL(branch, entry.Path), localPath); downloadError != nil {
				return result, fmt.Errorf(downloadFileErrorTemplateConstant, entry.Path, downloadError)
			}
			repository.logger.Info(fileDownloadedMessageConstant, zap.String(logFieldPathConstant, localPath))
			result.DownloadedFiles = append(result.DownloadedFiles, entry.Path)
		}
	}

	return result, nil
}

// GetCache walks the metadata cache by keys. It returns nil on a miss and never fetches.
func (repository *Repository) GetCache(keys ...string) any {
	return repository.cache.lookup(keys...)
}

// GetCommitInfo fetches a single commit by SHA or ref.
func (repository *Repository) GetCommitInfo(executionContext context.Context, commit string) (map[string]any, error) {
	endpoint := fmt.Sprintf(commitEndpointTemplateConstant, repository.identity, commit)
	payload, requestError := repository.client.GetJSON(executionContext, endpoint)
	if requestError != nil {
		return nil, fmt.Errorf(fetchCommitErrorTemplateConstant, commit, requestError)
	}

	commitInfo, isObject := payload.(map[string]any)
	if !isObject {
		return nil, fmt.Errorf(unexpectedPayloadTemplateConstant, ErrUnexpectedPayload, endpoint, payload)
	}
	return commitInfo, nil
}

// GetBranches lists every branch with its latest commit details and replaces
// the branch cache with the result. Each branch costs one extra request.
func (repository *Repository) GetBranches(executionContext context.Context) ([]BranchEntry, error) {
	endpoint := fmt.Sprintf(branchesEndpointTemplateConstant, repository.identity)
	payload, requestError := repository.client.GetJSON(executionContext, endpoint)
	if requestError != nil {
		return nil, fmt.Errorf(fetchBranchesErrorTemplateConstant, repository.identity, requestError)
	}
	if _, isList := payload.([]any); !isList {
		return nil, fmt.Errorf(unexpectedPayloadTemplateConstant, ErrUnexpectedPayload, endpoint, payload)
	}

	var branchDocuments []branchDocument
	if decodeError := decodeDocument(branchListDocumentNameConstant, payload, &branchDocuments); decodeError != nil {
		return nil, decodeError
	}

	now := repository.clock()
	entries := make([]BranchEntry, 0, len(branchDocuments))
	cachedBranches := make(map[string]any, len(branchDocuments))
	for _, branch := range branchDocuments {
		commitInfo, commitError := repository.GetCommitInfo(executionContext, branch.Commit.SHA)
		if commitError != nil {
			return nil, commitError
		}

		var commitDocument commitInfoDocument
		if decodeError := decodeDocument(commitDocumentNameConstant, commitInfo, &commitDocument); decodeError != nil {
			return nil, decodeError
		}
		authorDate, parseError := time.Parse(time.RFC3339, commitDocument.Commit.Author.Date)
		if parseError != nil {
			return nil, fmt.Errorf(commitDateParseErrorTemplateConstant, commitDocument.Commit.Author.Date, branch.Name, parseError)
		}

		daysAgo := repository.printer.Message(ui.MessageDaysAgo, map[string]any{substitutionDaysConstant: elapsedDays(authorDate, now)})
		entries = append(entries, BranchEntry{
			Label:      fmt.Sprintf(branchLabelTemplateConstant, branch.Name, daysAgo),
			Name:       branch.Name,
			CommitInfo: commitInfo,
		})
		cachedBranches[branch.Name] = commitInfo
	}

	repository.cache.replace(branchesCacheCategoryConstant, cachedBranches)
	repository.logger.Debug(branchesCachedMessageConstant, zap.Int(logFieldBranchCountConstant, len(cachedBranches)))
	return entries, nil
}

// GetVersion fetches and parses version.txt at the root of branch.
func (repository *Repository) GetVersion(executionContext context.Context, branch string) (version.Version, error) {
	versionURL := repository.DownloadURL(branch, version.FileName)
	content, statusCode, requestError := repository.client.GetRaw(executionContext, versionURL)
	if requestError != nil {
		return version.Version{}, fmt.Errorf(fetchVersionErrorTemplateConstant, branch, requestError)
	}
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return version.Version{}, fmt.Errorf(versionNotFoundTemplateConstant, ErrVersionNotFound, versionURL, statusCode)
	}

	parsedVersion, parseError := version.Parse(string(content))
	if parseError != nil {
		return version.Version{}, fmt.Errorf(fetchVersionErrorTemplateConstant, branch, parseError)
	}
	return parsedVersion, nil
}

// GetLatestCommitHash returns the head commit of branch. A branch cached by
// GetBranches is answered without a request and is never refreshed.
func (repository *Repository) GetLatestCommitHash(executionContext context.Context, branch string) (string, error) {
	if cachedCommit, isObject := repository.GetCache(branchesCacheCategoryConstant, branch).(map[string]any); isObject {
		if commitHash, isText := cachedCommit[commitHashFieldConstant].(string); isText {
			repository.logger.Debug(latestCommitFromCacheMessageConstant, zap.String(logFieldBranchConstant, branch))
			return commitHash, nil
		}
	}

	endpoint := fmt.Sprintf(branchEndpointTemplateConstant, repository.identity, branch)
	payload, requestError := repository.client.GetJSON(executionContext, endpoint)
	if requestError != nil {
		return "", fmt.Errorf(fetchBranchErrorTemplateConstant, branch, requestError)
	}

	var document branchDocument
	if decodeError := decodeDocument(branchDocumentNameConstant, payload, &document); decodeError != nil {
		return "", decodeError
	}
	if len(document.Commit.SHA) == 0 {
		return "", fmt.Errorf(unexpectedPayloadTemplateConstant, ErrUnexpectedPayload, endpoint, payload)
	}
	return document.Commit.SHA, nil
}

// Clone downloads the branch archive into "<name> <version>" under the working
// directory and returns that path. An existing directory with the same name is
// deleted first.
func (repository *Repository) Clone(executionContext context.Context, branch string) (string, error) {
	branchVersion, versionError := repository.GetVersion(executionContext, branch)
	if versionError != nil {
		return "", versionError
	}

	archiveBranch := strings.ReplaceAll(branch, branchPathSeparatorConstant, archiveBranchSeparatorConstant)
	destinationPath := repository.localPath(fmt.Sprintf(cloneDestinationTemplateConstant, repository.RepositoryName(), branchVersion.Value))
	extractedPath := repository.localPath(fmt.Sprintf(extractedFolderTemplateConstant, repository.RepositoryName(), archiveBranch))

	archiveURL := repository.client.ArchiveURL(repository.identity.String(), branch)
	archiveName := fmt.Sprintf(archiveNameTemplateConstant, archiveBranch)
	if downloadError := repository.downloader.DownloadAndExtract(executionContext, archiveURL, archiveName, repository.workingDirectory()); downloadError != nil {
		return "", fmt.Errorf(downloadArchiveErrorTemplateConstant, branch, downloadError)
	}

	destinationExists, existsError := repository.fileSystem.Exists(destinationPath)
	if existsError != nil {
		return "", fmt.Errorf(inspectPathErrorTemplateConstant, destinationPath, existsError)
	}
	if destinationExists {
		if removeError := repository.downloader.RemoveAll(destinationPath); removeError != nil {
			return "", fmt.Errorf(removeDestinationErrorTemplateConstant, destinationPath, removeError)
		}
		repository.logger.Info(destinationRemovedMessageConstant, zap.String(logFieldDestinationConstant, destinationPath))
	}

	if renameError := repository.fileSystem.Rename(extractedPath, destinationPath); renameError != nil {
		return "", fmt.Errorf(renameFolderErrorTemplateConstant, extractedPath, destinationPath, renameError)
	}

	repository.printer.Print(ui.MessageCloneCompleted, map[string]any{substitutionBranchConstant: branch, substitutionDirectoryConstant: destinationPath})
	repository.logger.Info(cloneCompletedMessageConstant, zap.String(logFieldBranchConstant, branch), zap.String(logFieldDestinationConstant, destinationPath))
	return destinationPath, nil
}

// DiffCommits compares base with head and prints the messages of the newest
// commits, oldest first.
func (repository *Repository) DiffCommits(executionContext context.Context, base string, head string) (Comparison, error) {
	payload, requestError := repository.client.GetJSON(executionContext, fmt.Sprintf(compareEndpointTemplateConstant, repository.identity, base, head))
	if requestError != nil {
		return Comparison{}, fmt.Errorf(fetchComparisonErrorTemplateConstant, base, head, requestError)
	}

	var document comparisonDocument
	if decodeError := decodeDocument(comparisonDocumentNameConstant, payload, &document); decodeError != nil {
		return Comparison{}, decodeError
	}

	showLastCommits := repository.settings.ShowLastCommits
	if showLastCommits <= 0 {
		showLastCommits = len(document.Commits)
	}
	repository.printer.Print(ui.MessageCommitDiffResults, map[string]any{
		substitutionAheadCommitsConstant: document.AheadBy,
		substitutionLastCountConstant:    showLastCommits,
	})

	displayedCommits := document.Commits
	if showLastCommits < len(displayedCommits) {
		displayedCommits = displayedCommits[len(displayedCommits)-showLastCommits:]
	}

	comparison := Comparison{AheadBy: document.AheadBy, Commits: document.Commits}
	for _, commit := range displayedCommits {
		var commitDocument commitInfoDocument
		if decodeError := decodeDocument(commitDocumentNameConstant, commit, &commitDocument); decodeError != nil {
			return Comparison{}, decodeError
		}
		repository.printer.Println(fmt.Sprintf(commitLineTemplateConstant, commitDocument.Commit.Message))
		comparison.DisplayedMessages = append(comparison.DisplayedMessages, commitDocument.Commit.Message)
	}

	return comparison, nil
}

// CheckForUpdate compares the commit recorded in a local version file with the
// head of its branch and prints the commits the local copy is missing.
func (repository *Repository) CheckForUpdate(executionContext context.Context, localVersion version.Version) (UpdateStatus, error) {
	if !localVersion.HasBranch() || len(strings.TrimSpace(localVersion.Branch)) == 0 {
		return UpdateStatus{}, ErrVersionBranchMissing
	}

	remoteCommit, commitError := repository.GetLatestCommitHash(executionContext, localVersion.Branch)
	if commitError != nil {
		return UpdateStatus{}, commitError
	}

	status := UpdateStatus{
		Branch:       localVersion.Branch,
		LocalCommit:  localVersion.CommitHash,
		RemoteCommit: remoteCommit,
		UpToDate:     localVersion.CommitHash == remoteCommit,
	}
	if status.UpToDate {
		repository.printer.Print(ui.MessageUpToDate, map[string]any{substitutionBranchConstant: status.Branch, substitutionCommitConstant: remoteCommit})
		return status, nil
	}

	repository.printer.Print(ui.MessageUpdateAvailable, map[string]any{
		substitutionBranchConstant: status.Branch,
		substitutionLocalConstant:  localVersion.CommitHash,
		substitutionRemoteConstant: remoteCommit,
	})
	if !localVersion.HasCommitHash() {
		return status, nil
	}

	comparison, comparisonError := repository.DiffCommits(executionContext, localVersion.CommitHash, remoteCommit)
	if comparisonError != nil {
		return status, comparisonError
	}
	status.Comparison = &comparison
	return status, nil
}

func (repository *Repository) workingDirectory() string {
	if len(repository.settings.WorkingDirectory) == 0 {
		return "."
	}
	return repository.settings.WorkingDirectory
}

func (repository *Repository) localPath(relativePath string) string {
	return filepath.Join(repository.workingDirectory(), filepath.FromSlash(relativePath))
}

// elapsedDays counts whole days from then to now, rounding toward negative infinity.
func elapsedDays(then time.Time, now time.Time) int {
	return int(math.Floor(now.Sub(then).Hours() / hoursPerDayConstant))
}
