package filesystem_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghmirror/internal/filesystem"
)

func TestOSFileSystemLifecycle(testInstance *testing.T) {
	fileSystem := filesystem.OSFileSystem{}
	rootDirectory := testInstance.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "a", "b")
	filePath := filepath.Join(nestedDirectory, "file.txt")

	exists, existsError := fileSystem.Exists(nestedDirectory)
	require.NoError(testInstance, existsError)
	require.False(testInstance, exists)

	require.NoError(testInstance, fileSystem.MkdirAll(nestedDirectory, 0o755))
	fileInfo, statError := fileSystem.Stat(nestedDirectory)
	require.NoError(testInstance, statError)
	require.True(testInstance, fileInfo.IsDir())

	writer, createError := fileSystem.Create(filePath, 0o644)
	require.NoError(testInstance, createError)
	_, writeError := io.WriteString(writer, "first")
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, writer.Close())

	writer, createError = fileSystem.Create(filePath, 0o644)
	require.NoError(testInstance, createError)
	_, writeError = io.WriteString(writer, "2")
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, writer.Close())

	content, readError := os.ReadFile(filePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "2", string(content))

	renamedPath := filepath.Join(rootDirectory, "renamed.txt")
	require.NoError(testInstance, fileSystem.Rename(filePath, renamedPath))
	exists, existsError = fileSystem.Exists(renamedPath)
	require.NoError(testInstance, existsError)
	require.True(testInstance, exists)

	require.NoError(testInstance, fileSystem.Remove(renamedPath))
	require.NoError(testInstance, fileSystem.RemoveAll(filepath.Join(rootDirectory, "a")))
	exists, existsError = fileSystem.Exists(nestedDirectory)
	require.NoError(testInstance, existsError)
	require.False(testInstance, exists)

	absolutePath, absError := fileSystem.Abs("relative")
	require.NoError(testInstance, absError)
	require.True(testInstance, filepath.IsAbs(absolutePath))
}
