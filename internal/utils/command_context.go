package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	repositoryIdentityContextKeyConstant    = commandContextKey("repositoryIdentity")
)

type commandContextKey string

// CommandContextAccessor stores and reads values shared between the root command and its subcommands.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath records the configuration file that was loaded.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return accessor.withValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath returns the recorded configuration file.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return accessor.stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithRepositoryIdentity records the owner/name repository selected for the invocation.
func (accessor CommandContextAccessor) WithRepositoryIdentity(parentContext context.Context, repositoryIdentity string) context.Context {
	return accessor.withValue(parentContext, repositoryIdentityContextKeyConstant, repositoryIdentity)
}

// RepositoryIdentity returns the recorded repository identity.
func (accessor CommandContextAccessor) RepositoryIdentity(executionContext context.Context) (string, bool) {
	return accessor.stringValue(executionContext, repositoryIdentityContextKeyConstant)
}

func (accessor CommandContextAccessor) withValue(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func (accessor CommandContextAccessor) stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, available := executionContext.Value(key).(string)
	return value, available
}
