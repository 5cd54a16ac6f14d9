package repository

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

const (
	// TreeKindDirectory marks directory entries of a git tree.
	TreeKindDirectory = "tree"
	// TreeKindFile marks regular file entries of a git tree.
	TreeKindFile = "blob"
	// TreeKindSubmodule marks submodule entries of a git tree.
	TreeKindSubmodule = "commit"

	decoderCreationErrorTemplateConstant  = "unable to prepare %s decoder: %w"
	documentDecodingErrorTemplateConstant = "unable to decode %s: %w"
)

// TreeEntry is a single path of a recursive git tree.
type TreeEntry struct {
	Path string
	Kind string
}

// Tree lists the entries of a branch in the order GitHub returned them.
type Tree struct {
	Entries []TreeEntry
}

// Kinds returns the path to kind mapping of the tree.
func (tree Tree) Kinds() map[string]string {
	kinds := make(map[string]string, len(tree.Entries))
	for _, entry := range tree.Entries {
		kinds[entry.Path] = entry.Kind
	}
	return kinds
}

// BranchEntry pairs a branch with its latest commit details.
type BranchEntry struct {
	// Label renders as "<branch> [<N days ago>]".
	Label      string
	Name       string
	CommitInfo map[string]any
}

// CompareResult summarizes the paths restored by CompareTree.
type CompareResult struct {
	CreatedDirectories []string
	DownloadedFiles    []string
	SkippedEntries     []string
}

// Comparison captures a compare response between two commits.
type Comparison struct {
	AheadBy int
	Commits []map[string]any
	// DisplayedMessages holds the commit messages printed for the tail of Commits.
	DisplayedMessages []string
}

// UpdateStatus reports whether a local version lags behind its branch.
type UpdateStatus struct {
	Branch       string
	LocalCommit  string
	RemoteCommit string
	UpToDate     bool
	// Comparison is nil when no diff was requested.
	Comparison *Comparison
}

type treeDocument struct {
	Tree []treeItemDocument `mapstructure:"tree"`
}

type treeItemDocument struct {
	Path string `mapstructure:"path"`
	Type string `mapstructure:"type"`
}

type branchDocument struct {
	Name   string                  `mapstructure:"name"`
	Commit commitReferenceDocument `mapstructure:"commit"`
}

type commitReferenceDocument struct {
	SHA string `mapstructure:"sha"`
}

type commitInfoDocument struct {
	SHA    string               `mapstructure:"sha"`
	Commit commitDetailDocument `mapstructure:"commit"`
}

type commitDetailDocument struct {
	Message string               `mapstructure:"message"`
	Author  commitAuthorDocument `mapstructure:"author"`
}

type commitAuthorDocument struct {
	Date string `mapstructure:"date"`
}

type comparisonDocument struct {
	AheadBy int              `mapstructure:"ahead_by"`
	Commits []map[string]any `mapstructure:"commits"`
}

func decodeDocument(description string, input any, output any) error {
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
	})
	if decoderError != nil {
		return fmt.Errorf(decoderCreationErrorTemplateConstant, description, decoderError)
	}
	if decodeError := decoder.Decode(input); decodeError != nil {
		return fmt.Errorf(documentDecodingErrorTemplateConstant, description, decodeError)
	}
	return nil
}
