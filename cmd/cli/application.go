package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ghmirror/internal/repository"
	"github.com/temirov/ghmirror/internal/ui"
	"github.com/temirov/ghmirror/internal/utils"
	"github.com/temirov/ghmirror/internal/utils/flags"
)

const (
	applicationNameConstant                 = "ghmirror"
	applicationShortDescriptionConstant     = "Inspect and mirror GitHub branches without git"
	applicationLongDescriptionConstant      = "ghmirror talks to the GitHub REST API and raw content endpoints to list branches, print trees and versions, compare commits, restore missing files and download branch snapshots."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	repositoryFlagNameConstant              = "repository"
	repositoryFlagShorthandConstant         = "r"
	repositoryFlagUsageConstant             = "Repository to operate on as owner/name."
	workingDirectoryFlagNameConstant        = "workdir"
	workingDirectoryFlagUsageConstant       = "Local directory that mirrors the repository."
	progressFlagNameConstant                = "progress"
	progressFlagUsageConstant               = "Render download progress bars on stderr."
	languageFlagNameConstant                = "language"
	languageFlagUsageConstant               = "Language of console messages."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	repositoryConfigurationKeyConstant      = "repository"
	githubConfigurationKeyConstant          = "github"
	environmentPrefixConstant               = "GHMIRROR"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationRepositoryFieldConstant    = "repository"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build repository commands: %w"
	rootCommandDebugMessageConstant         = "ghmirror CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
)

var (
	logLevelChoices  = []string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)}
	logFormatChoices = []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common     ApplicationCommonConfiguration  `mapstructure:"common"`
	Repository repository.CommandConfiguration `mapstructure:"repository"`
	GitHub     repository.GitHubConfiguration  `mapstructure:"github"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand               *cobra.Command
	configurationLoader       *utils.ConfigurationLoader
	loggerFactory             *utils.LoggerFactory
	logger                    *zap.Logger
	configuration             ApplicationConfiguration
	configurationMetadata     utils.LoadedConfiguration
	configurationFilePath     string
	logLevelFlagValue         string
	logFormatFlagValue        string
	repositoryFlagValue       string
	workingDirectoryFlagValue string
	languageFlagValue         string
	showProgressFlagValue     bool
	commandContextAccessor    utils.CommandContextAccessor
	buildError                error
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogLevelInfo), logLevelChoices, logLevelFlagUsageConstant))
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogFormatStructured), logFormatChoices, logFormatFlagUsageConstant))
	persistentFlags.StringVarP(&application.repositoryFlagValue, repositoryFlagNameConstant, repositoryFlagShorthandConstant, "", repositoryFlagUsageConstant)
	persistentFlags.StringVar(&application.workingDirectoryFlagValue, workingDirectoryFlagNameConstant, "", workingDirectoryFlagUsageConstant)
	persistentFlags.StringVar(&application.languageFlagValue, languageFlagNameConstant, "", flags.FormatChoiceUsage(ui.DefaultLanguage, ui.SupportedLanguages(), languageFlagUsageConstant))
	flags.AddToggleFlag(persistentFlags, &application.showProgressFlagValue, progressFlagNameConstant, "", true, progressFlagUsageConstant)

	repositoryBuilder := repository.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() repository.CommandConfiguration {
			return application.configuration.Repository
		},
		GitHubConfigurationProvider: func() repository.GitHubConfiguration {
			return application.configuration.GitHub
		},
	}
	repositoryCommands, repositoryBuildError := repositoryBuilder.Build()
	if repositoryBuildError != nil {
		application.buildError = fmt.Errorf(commandBuildErrorTemplateConstant, repositoryBuildError)
	}
	cobraCommand.AddCommand(repositoryCommands...)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the command hierarchy against the process arguments.
func (application *Application) Execute() error {
	return application.ExecuteWithArguments(os.Args[1:])
}

// ExecuteWithArguments runs the command hierarchy against arguments and ensures logger flushing.
func (application *Application) ExecuteWithArguments(arguments []string) error {
	if application.buildError != nil {
		return application.buildError
	}
	normalizedArguments := flags.NormalizeToggleArguments(arguments)
	if normalizedArguments == nil {
		normalizedArguments = []string{}
	}
	application.rootCommand.SetArgs(normalizedArguments)

	executionError := application.rootCommand.Execute()
	if syncError := utils.SyncLogger(application.logger); syncError != nil {
		return errors.Join(executionError, fmt.Errorf(loggerSyncErrorTemplateConstant, syncError))
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range repository.DefaultConfigurationValues(repositoryConfigurationKeyConstant, githubConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, workingDirectoryFlagNameConstant) {
		application.configuration.Repository.WorkingDirectory = application.workingDirectoryFlagValue
	}
	if application.persistentFlagChanged(command, languageFlagNameConstant) {
		application.configuration.Repository.Language = application.languageFlagValue
	}
	if application.persistentFlagChanged(command, progressFlagNameConstant) {
		application.configuration.Repository.ShowProgress = application.showProgressFlagValue
	}
	application.configuration.Repository = application.configuration.Repository.Sanitize()
	application.configuration.GitHub = application.configuration.GitHub.Sanitize()

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationRepositoryFieldConstant, application.configuration.Repository.Name),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		if application.persistentFlagChanged(command, repositoryFlagNameConstant) {
			updatedContext = application.commandContextAccessor.WithRepositoryIdentity(updatedContext, strings.TrimSpace(application.repositoryFlagValue))
		}
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}
