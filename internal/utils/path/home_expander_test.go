package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/ghmirror/internal/utils/path"
)

func TestHomeExpanderExpand(testInstance *testing.T) {
	homeDirectory := filepath.Join(string(filepath.Separator), "home", "mirror")

	testCases := []struct {
		name          string
		provider      pathutils.HomeDirectoryProvider
		candidatePath string
		expectedPath  string
	}{
		{name: "empty_path", candidatePath: "", expectedPath: ""},
		{name: "absolute_path", candidatePath: "/srv/mirror", expectedPath: "/srv/mirror"},
		{name: "bare_tilde", candidatePath: "~", expectedPath: homeDirectory},
		{name: "tilde_prefix", candidatePath: "~/projects/app", expectedPath: filepath.Join(homeDirectory, "projects", "app")},
		{name: "other_user", candidatePath: "~someone/app", expectedPath: "~someone/app"},
		{
			name:          "provider_failure",
			provider:      func() (string, error) { return "", errors.New("no home") },
			candidatePath: "~/app",
			expectedPath:  "~/app",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			provider := testCase.provider
			if provider == nil {
				provider = func() (string, error) { return homeDirectory, nil }
			}
			expander := pathutils.NewHomeExpanderWithProvider(provider)
			require.Equal(testInstance, testCase.expectedPath, expander.Expand(testCase.candidatePath))
		})
	}
}

func TestHomeExpanderResolvesOnce(testInstance *testing.T) {
	lookups := 0
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		lookups++
		return "/home/mirror", nil
	})

	expander.Expand("~/one")
	expander.Expand("~/two")
	require.Equal(testInstance, 1, lookups)

	var nilExpander *pathutils.HomeExpander
	require.Equal(testInstance, "~/app", nilExpander.Expand("~/app"))
}
