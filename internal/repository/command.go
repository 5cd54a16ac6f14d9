package repository

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ghmirror/internal/download"
	"github.com/temirov/ghmirror/internal/filesystem"
	"github.com/temirov/ghmirror/internal/githubapi"
	"github.com/temirov/ghmirror/internal/githubauth"
	"github.com/temirov/ghmirror/internal/ui"
	"github.com/temirov/ghmirror/internal/utils"
	"github.com/temirov/ghmirror/internal/version"
)

const (
	branchesCommandUseConstant              = "branches"
	branchesCommandShortDescriptionConstant = "List branches with the age of their latest commit"
	treeCommandUseConstant                  = "tree <branch>"
	treeCommandShortDescriptionConstant     = "Print the recursive file tree of a branch"
	repairCommandUseConstant                = "repair <branch>"
	repairCommandShortDescriptionConstant   = "Restore files and directories of a branch missing from the working directory"
	repairCommandLongDescriptionConstant    = "repair walks the remote tree of the branch and creates every directory and downloads every file that does not exist locally. Existing paths are never overwritten and local files absent from the branch are kept."
	compareCommandUseConstant               = "compare <base> <head>"
	compareCommandShortDescriptionConstant  = "Show how many commits head is ahead of base and print the newest messages"
	versionCommandUseConstant               = "version <branch>"
	versionCommandShortDescriptionConstant  = "Print the version.txt marker of a branch"
	latestCommitCommandUseConstant          = "latest-commit <branch>"
	latestCommitShortDescriptionConstant    = "Print the head commit hash of a branch"
	cloneCommandUseConstant                 = "clone <branch>"
	cloneCommandShortDescriptionConstant    = "Download a branch snapshot into \"<name> <version>\""
	cloneCommandLongDescriptionConstant     = "clone downloads the zip archive of the branch, extracts it into the working directory and renames the extracted folder to \"<name> <version>\" using the branch version.txt. An existing directory with that name is deleted first."
	stampCommandUseConstant                 = "stamp [branch]"
	stampCommandShortDescriptionConstant    = "Write the head commit hash of a branch into the local version.txt"
	checkCommandUseConstant                 = "check"
	checkCommandShortDescriptionConstant    = "Compare the local version.txt commit with its branch head"
	treeLineTemplateConstant                = "%s\t%s"
	versionLineTemplateConstant             = "%s %s %s"
	versionFileMissingMessageConstant       = "version file not found in working directory"
	locateVersionErrorTemplateConstant      = "unable to locate %s: %w"
	configurationFileLoggedMessageConstant  = "repository command configured"
	logFieldConfigurationFileConstant       = "config_file"
	logFieldCommandConstant                 = "command"
	githubTokenResolvedMessageConstant      = "github token resolved"
	logFieldTokenSourceConstant             = "token_source"
)

// ErrVersionFileMissing indicates no version.txt exists under the working directory.
var ErrVersionFileMissing = errors.New(versionFileMissingMessageConstant)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the repository commands.
type CommandBuilder struct {
	LoggerProvider              LoggerProvider
	ConfigurationProvider       func() CommandConfiguration
	GitHubConfigurationProvider func() GitHubConfiguration
	// HTTPClient overrides the transport built from the GitHub configuration.
	HTTPClient githubapi.HTTPClient
	// Environment supplies token variables ahead of the process environment.
	Environment map[string]string
	Clock       Clock
}

// Build constructs every repository command.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	commands := []*cobra.Command{
		{
			Use:   branchesCommandUseConstant,
			Short: branchesCommandShortDescriptionConstant,
			Args:  cobra.NoArgs,
			RunE:  builder.runBranches,
		},
		{
			Use:   treeCommandUseConstant,
			Short: treeCommandShortDescriptionConstant,
			Args:  cobra.ExactArgs(1),
			RunE:  builder.runTree,
		},
		{
			Use:   repairCommandUseConstant,
			Short: repairCommandShortDescriptionConstant,
			Long:  repairCommandLongDescriptionConstant,
			Args:  cobra.ExactArgs(1),
			RunE:  builder.runRepair,
		},
		{
			Use:   compareCommandUseConstant,
			Short: compareCommandShortDescriptionConstant,
			Args:  cobra.ExactArgs(2),
			RunE:  builder.runCompare,
		},
		{
			Use:   versionCommandUseConstant,
			Short: versionCommandShortDescriptionConstant,
			Args:  cobra.ExactArgs(1),
			RunE:  builder.runVersion,
		},
		{
			Use:   latestCommitCommandUseConstant,
			Short: latestCommitShortDescriptionConstant,
			Args:  cobra.ExactArgs(1),
			RunE:  builder.runLatestCommit,
		},
		{
			Use:   cloneCommandUseConstant,
			Short: cloneCommandShortDescriptionConstant,
			Long:  cloneCommandLongDescriptionConstant,
			Args:  cobra.ExactArgs(1),
			RunE:  builder.runClone,
		},
		{
			Use:   stampCommandUseConstant,
			Short: stampCommandShortDescriptionConstant,
			Args:  cobra.MaximumNArgs(1),
			RunE:  builder.runStamp,
		},
		{
			Use:   checkCommandUseConstant,
			Short: checkCommandShortDescriptionConstant,
			Args:  cobra.NoArgs,
			RunE:  builder.runCheck,
		},
	}
	return commands, nil
}

func (builder *CommandBuilder) runBranches(command *cobra.Command, arguments []string) error {
	repository, printer, repositoryError := builder.newRepository(command)
	if repositoryError != nil {
		return repositoryError
	}
	branches, branchesError := repository.GetBranches(command.Context())
	if branchesError != nil {
		return branchesError
	}
	for _, branch := range branches {
		printer.Println(branch.Label)
	}
	return nil
}

func (builder *CommandBuilder) runTree(command *cobra.Command, arguments []string) error {
	repository, printer, repositoryError := builder.newRepository(command)
	if repositoryError != nil {
		return repositoryError
	}
	tree, treeError := repository.GetTree(command.Context(), arguments[0])
	if treeError != nil {
		return treeError
	}
	for _, entry := range tree.Entries {
		printer.Println(fmt.Sprintf(treeLineTemplateConstant, entry.Kind, entry.Path))
	}
	return nil
}

func (builder *CommandBuilder) runRepair(command *cobra.Command, arguments []string) error {
	repository, _, repositoryError := builder.newRepository(command)
	if repositoryError != nil {
		return repositoryError
	}
	_, compareError := repository.CompareTree(command.Context(), arguments[0])
	return compareError
}

func (builder *CommandBuilder) runCompare(command *cobra.Command, arguments []string) error {
	repository, _, repositoryError := builder.newRepository(command)
	if repositoryError != nil {
		return repositoryError
	}
	_, diffError := repository.DiffCommits(command.Context(), arguments[0], arguments[1])
	return diffError
}

func (builder *CommandBuilder) runVersion(command *cobra.Command, arguments []string) error {
	repository, printer, repositoryError := builder.newRepository(command)
	if repositoryError != nil {
		return repositoryError
	}
	branchVersion, versionError := repository.GetVersion(command.Context(), arguments[0])
	if versionError != nil {
		return versionError
	}
	printer.Println(fmt.Sprintf(versionLineTemplateConstant, branchVersion.Value, branchVersion.Branch, branchVersion.CommitHash))
	return nil
}

func (builder *CommandBuilder) runLatestCommit(command *cobra.Command, arguments []string) error {
	repository, printer, repositoryError := builder.newRepository(command)
	if repositoryError != nil {
		return repositoryError
	}
	commitHash, commitError := repository.GetLatestCommitHash(command.Context(), arguments[0])
	if commitError != nil {
		return commitError
	}
	printer.Println(commitHash)
	return nil
}

func (builder *CommandBuilder) runClone(command *cobra.Command, arguments []string) error {
	repository, _, repositoryError := builder.newRepository(command)
	if repositoryError != nil {
		return repositoryError
	}
	_, cloneError := repository.Clone(command.Context(), arguments[0])
	return cloneError
}

func (builder *CommandBuilder) runStamp(command *cobra.Command, arguments []string) error {
	repository, printer, repositoryError := builder.newRepository(command)
	if repositoryError != nil {
		return repositoryError
	}
	localVersion, locateError := builder.locateVersion(repository, printer)
	if locateError != nil {
		return locateError
	}

	branch := localVersion.Branch
	if len(arguments) > 0 {
		branch = arguments[0]
	}
	if len(branch) == 0 {
		return ErrVersionBranchMissing
	}

	commitHash, commitError := repository.GetLatestCommitHash(command.Context(), branch)
	if commitError != nil {
		return commitError
	}
	if writeError := localVersion.WriteCommitHash(commitHash); writeError != nil {
		return writeError
	}
	printer.Print(ui.MessageCommitHashWritten, map[string]any{substitutionCommitConstant: commitHash, substitutionFileConstant: localVersion.FilePath})
	return nil
}

func (builder *CommandBuilder) runCheck(command *cobra.Command, arguments []string) error {
	repository, printer, repositoryError := builder.newRepository(command)
	if repositoryError != nil {
		return repositoryError
	}
	localVersion, locateError := builder.locateVersion(repository, printer)
	if locateError != nil {
		return locateError
	}
	_, checkError := repository.CheckForUpdate(command.Context(), localVersion)
	return checkError
}

func (builder *CommandBuilder) locateVersion(repository *Repository, printer *ui.Printer) (version.Version, error) {
	root := repository.workingDirectory()
	localVersion, found, locateError := version.Locate(root)
	if locateError != nil {
		return version.Version{}, fmt.Errorf(locateVersionErrorTemplateConstant, version.FileName, locateError)
	}
	if !found {
		printer.Print(ui.MessageVersionFileMissing, map[string]any{substitutionDirectoryConstant: root})
		return version.Version{}, ErrVersionFileMissing
	}
	return localVersion, nil
}

func (builder *CommandBuilder) newRepository(command *cobra.Command) (*Repository, *ui.Printer, error) {
	configuration := builder.resolveConfiguration()
	githubConfiguration := builder.resolveGitHubConfiguration()
	logger := builder.resolveLogger()

	contextAccessor := utils.NewCommandContextAccessor()
	if configurationFile, available := contextAccessor.ConfigurationFilePath(command.Context()); available {
		logger.Debug(configurationFileLoggedMessageConstant, zap.String(logFieldCommandConstant, command.Name()), zap.String(logFieldConfigurationFileConstant, configurationFile))
	}
	if identityOverride, available := contextAccessor.RepositoryIdentity(command.Context()); available && len(strings.TrimSpace(identityOverride)) > 0 {
		configuration.Name = strings.TrimSpace(identityOverride)
	}

	identity, identityError := ParseIdentity(configuration.Name)
	if identityError != nil {
		return nil, nil, identityError
	}

	catalog, catalogError := ui.LoadMessageCatalog(configuration.Language)
	if catalogError != nil {
		return nil, nil, catalogError
	}
	printer := ui.NewPrinter(utils.NewFlushingWriter(command.OutOrStdout()), catalog)

	httpClient := builder.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: githubConfiguration.Timeout}
	}
	token, tokenAvailable := githubauth.ResolveToken(builder.Environment)
	if tokenAvailable {
		logger.Debug(githubTokenResolvedMessageConstant, zap.String(logFieldTokenSourceConstant, token.Source))
	}
	client, clientError := githubapi.NewClient(logger, httpClient, githubapi.Configuration{
		APIBaseURL:     githubConfiguration.APIBaseURL,
		RawBaseURL:     githubConfiguration.RawBaseURL,
		ArchiveBaseURL: githubConfiguration.ArchiveBaseURL,
		Token:          token.Value,
	})
	if clientError != nil {
		return nil, nil, clientError
	}

	var progressOutput io.Writer
	if configuration.ShowProgress {
		progressOutput = command.ErrOrStderr()
	}
	fileSystem := filesystem.OSFileSystem{}
	downloader, downloaderError := download.NewDownloader(logger, client, fileSystem, progressOutput)
	if downloaderError != nil {
		return nil, nil, downloaderError
	}

	repository, repositoryError := NewRepository(identity, Settings{
		ShowLastCommits:  configuration.ShowLastCommits,
		WorkingDirectory: configuration.WorkingDirectory,
	}, Dependencies{
		Client:     client,
		Downloader: downloader,
		FileSystem: fileSystem,
		Printer:    printer,
		Clock:      builder.Clock,
		Logger:     logger,
	})
	if repositoryError != nil {
		return nil, nil, repositoryError
	}
	return repository, printer, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().Sanitize()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveGitHubConfiguration() GitHubConfiguration {
	if builder.GitHubConfigurationProvider == nil {
		return DefaultGitHubConfiguration()
	}
	return builder.GitHubConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
