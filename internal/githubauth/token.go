// Package githubauth locates the GitHub token used to authenticate API and archive requests.
package githubauth

import (
	"os"
	"strings"
)

// Environment variable names consulted for a GitHub token, highest precedence first.
const (
	EnvMirrorToken    = "GHMIRROR_GITHUB_TOKEN"
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
)

var tokenPreference = []string{EnvMirrorToken, EnvGitHubCLIToken, EnvGitHubToken}

// Token is a resolved credential together with the variable it came from.
type Token struct {
	Value  string
	Source string
}

// ResolveToken returns the first non-blank token. Variables in environment take precedence
// over the process environment; a nil map consults the process environment only.
func ResolveToken(environment map[string]string) (Token, bool) {
	lookups := []func(string) (string, bool){
		func(key string) (string, bool) {
			value, exists := environment[key]
			return value, exists
		},
		os.LookupEnv,
	}

	for _, lookupVariable := range lookups {
		for _, variableName := range tokenPreference {
			value, exists := lookupVariable(variableName)
			value = strings.TrimSpace(value)
			if exists && len(value) > 0 {
				return Token{Value: value, Source: variableName}, true
			}
		}
	}
	return Token{}, false
}
