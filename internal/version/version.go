// Package version models the three-line version.txt marker shipped with
// mirrored repositories: the version string, an optional branch name and an
// optional commit hash.
package version

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// FileName is the marker file looked up at the repository root.
	FileName = "version.txt"

	lineTerminatorConstant                 = "\n"
	commitHashLineIndexConstant            = 2
	versionFilePermissionsConstant         = 0o644
	emptyVersionMessageConstant            = "version marker has an empty first line"
	noBackingFileMessageConstant           = "version was not loaded from a file"
	readVersionFileErrorTemplateConstant   = "unable to read %s: %w"
	writeVersionFileErrorTemplateConstant  = "unable to write %s: %w"
	parseVersionFileErrorTemplateConstant  = "unable to parse %s: %w"
	locateVersionFileErrorTemplateConstant = "unable to search %s for %s: %w"
)

var (
	// ErrEmptyVersion indicates the marker content had no version on its first line.
	ErrEmptyVersion = errors.New(emptyVersionMessageConstant)

	// ErrNoBackingFile indicates WriteCommitHash was called on a Version built from network content.
	ErrNoBackingFile = errors.New(noBackingFileMessageConstant)
)

// Version is the parsed content of a version marker.
type Version struct {
	Value      string
	Branch     string
	CommitHash string
	// FilePath is empty when the version was parsed from network content.
	FilePath string

	branchPresent bool
}

// Parse builds a Version from marker content.
func Parse(content string) (Version, error) {
	lines := splitLines(content)
	if len(lines) == 0 || len(lines[0]) == 0 {
		return Version{}, ErrEmptyVersion
	}

	parsed := Version{Value: lines[0]}
	if len(lines) > 1 {
		parsed.Branch = lines[1]
		parsed.branchPresent = true
	}
	if len(lines) > commitHashLineIndexConstant {
		parsed.CommitHash = lines[commitHashLineIndexConstant]
	}

	return parsed, nil
}

// HasBranch reports whether the marker carried a second line.
func (version Version) HasBranch() bool {
	return version.branchPresent
}

// HasCommitHash reports whether the marker carried a non-empty third line.
func (version Version) HasCommitHash() bool {
	return len(version.CommitHash) > 0
}

// WriteCommitHash stores hash on the third line of the backing file.
// Files with fewer than three lines get the hash appended as a new line.
func (version *Version) WriteCommitHash(hash string) error {
	if len(version.FilePath) == 0 {
		return ErrNoBackingFile
	}

	content, readError := os.ReadFile(version.FilePath)
	if readError != nil {
		return fmt.Errorf(readVersionFileErrorTemplateConstant, version.FilePath, readError)
	}

	lines := splitLinesKeepingTerminators(string(content))
	hashLine := hash + lineTerminatorConstant
	if len(lines) > commitHashLineIndexConstant {
		lines[commitHashLineIndexConstant] = hashLine
	} else {
		if lastIndex := len(lines) - 1; lastIndex >= 0 && !hasLineTerminator(lines[lastIndex]) {
			lines[lastIndex] += lineTerminatorConstant
		}
		lines = append(lines, hashLine)
	}

	if writeError := os.WriteFile(version.FilePath, []byte(strings.Join(lines, "")), versionFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeVersionFileErrorTemplateConstant, version.FilePath, writeError)
	}

	version.CommitHash = hash
	return nil
}

// Locate loads the shallowest regular file named version.txt under root.
// Directories of the same depth are searched in lexical order. The boolean
// result is false when no such file exists.
func Locate(root string) (Version, bool, error) {
	locatedPath, searchError := findMarker(root)
	if searchError != nil {
		return Version{}, false, fmt.Errorf(locateVersionFileErrorTemplateConstant, root, FileName, searchError)
	}
	if len(locatedPath) == 0 {
		return Version{}, false, nil
	}

	content, readError := os.ReadFile(locatedPath)
	if readError != nil {
		return Version{}, false, fmt.Errorf(readVersionFileErrorTemplateConstant, locatedPath, readError)
	}

	located, parseError := Parse(string(content))
	if parseError != nil {
		return Version{}, false, fmt.Errorf(parseVersionFileErrorTemplateConstant, locatedPath, parseError)
	}
	located.FilePath = locatedPath

	return located, true, nil
}

func findMarker(root string) (string, error) {
	pendingDirectories := []string{root}
	for len(pendingDirectories) > 0 {
		directory := pendingDirectories[0]
		pendingDirectories = pendingDirectories[1:]

		directoryEntries, readError := os.ReadDir(directory)
		if readError != nil {
			return "", readError
		}
		for _, directoryEntry := range directoryEntries {
			entryPath := filepath.Join(directory, directoryEntry.Name())
			if directoryEntry.IsDir() {
				pendingDirectories = append(pendingDirectories, entryPath)
				continue
			}
			if directoryEntry.Name() == FileName && directoryEntry.Type().IsRegular() {
				return entryPath, nil
			}
		}
	}
	return "", nil
}

func splitLines(content string) []string {
	lines := splitLinesKeepingTerminators(content)
	for lineIndex, line := range lines {
		lines[lineIndex] = strings.TrimRightFunc(line, isLineBreak)
	}
	return lines
}

// splitLinesKeepingTerminators treats a carriage return followed by a line
// feed as one terminator, and every other line break rune on its own.
func splitLinesKeepingTerminators(content string) []string {
	var lines []string
	lineStart := 0
	for runeIndex, character := range content {
		if !isLineBreak(character) {
			continue
		}
		lineEnd := runeIndex + utf8.RuneLen(character)
		if character == '\r' && strings.HasPrefix(content[lineEnd:], lineTerminatorConstant) {
			continue
		}
		lines = append(lines, content[lineStart:lineEnd])
		lineStart = lineEnd
	}
	if lineStart < len(content) {
		lines = append(lines, content[lineStart:])
	}
	return lines
}

func hasLineTerminator(line string) bool {
	lastRune, _ := utf8.DecodeLastRuneInString(line)
	return isLineBreak(lastRune)
}

func isLineBreak(character rune) bool {
	switch character {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
