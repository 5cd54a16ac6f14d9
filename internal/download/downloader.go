// Package download fetches remote files and branch archives onto the local
// file system, rendering progress with cheggaaa/pb and extracting zip archives
// with klauspost/compress.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/temirov/ghmirror/internal/filesystem"
)

const (
	directoryPermissionsConstant          = 0o755
	filePermissionsConstant               = 0o644
	parentDirectoryReferenceConstant      = ".."
	sourceMissingMessageConstant          = "download source not configured"
	fileSystemMissingMessageConstant      = "file system not configured"
	archiveEntryEscapesTemplateConstant   = "archive entry %q escapes %s"
	createDirectoryErrorTemplateConstant  = "unable to create directory %s: %w"
	createFileErrorTemplateConstant       = "unable to create %s: %w"
	copyErrorTemplateConstant             = "unable to write %s: %w"
	openArchiveErrorTemplateConstant      = "unable to open archive %s: %w"
	openArchiveEntryErrorTemplateConstant = "unable to read archive entry %s: %w"
	removeArchiveErrorTemplateConstant    = "unable to remove archive %s: %w"
	downloadStartedMessageConstant        = "download started"
	downloadCompletedMessageConstant      = "download completed"
	archiveExtractedMessageConstant       = "archive extracted"
	logFieldURLConstant                   = "url"
	logFieldDestinationConstant           = "destination"
	logFieldBytesConstant                 = "bytes"
	logFieldEntriesConstant               = "entries"
)

var (
	// ErrSourceNotConfigured indicates the downloader was constructed without a source.
	ErrSourceNotConfigured = errors.New(sourceMissingMessageConstant)

	// ErrFileSystemNotConfigured indicates the downloader was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)
)

// Source opens remote content for streaming.
type Source interface {
	Open(executionContext context.Context, url string) (io.ReadCloser, int64, error)
}

// Downloader implements the file and archive download collaborators.
type Downloader struct {
	logger         *zap.Logger
	source         Source
	fileSystem     filesystem.FileSystem
	progressOutput io.Writer
}

// NewDownloader constructs a Downloader. Progress bars are written to progressOutput; nil disables them.
func NewDownloader(logger *zap.Logger, source Source, fileSystem filesystem.FileSystem, progressOutput io.Writer) (*Downloader, error) {
	if source == nil {
		return nil, ErrSourceNotConfigured
	}
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{logger: logger, source: source, fileSystem: fileSystem, progressOutput: progressOutput}, nil
}

// DownloadFile streams url into destinationPath, creating missing parent directories.
func (downloader *Downloader) DownloadFile(executionContext context.Context, url string, destinationPath string) error {
	body, size, openError := downloader.source.Open(executionContext, url)
	if openError != nil {
		return openError
	}
	defer body.Close()

	downloader.logger.Debug(downloadStartedMessageConstant, zap.String(logFieldURLConstant, url), zap.String(logFieldDestinationConstant, destinationPath))

	if mkdirError := downloader.fileSystem.MkdirAll(filepath.Dir(destinationPath), directoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(createDirectoryErrorTemplateConstant, filepath.Dir(destinationPath), mkdirError)
	}

	destination, createError := downloader.fileSystem.Create(destinationPath, filePermissionsConstant)
	if createError != nil {
		return fmt.Errorf(createFileErrorTemplateConstant, destinationPath, createError)
	}

	var reader io.Reader = body
	var progressBar *pb.ProgressBar
	if downloader.progressOutput != nil {
		if size < 0 {
			size = 0
		}
		progressBar = pb.New64(size)
		progressBar.SetTemplate(pb.Full)
		progressBar.SetWriter(downloader.progressOutput)
		progressBar.Set(pb.Bytes, true)
		progressBar.Start()
		reader = progressBar.NewProxyReader(body)
	}

	copiedBytes, copyError := io.Copy(destination, reader)
	if progressBar != nil {
		progressBar.Finish()
	}
	closeError := destination.Close()
	if copyError != nil {
		return fmt.Errorf(copyErrorTemplateConstant, destinationPath, copyError)
	}
	if closeError != nil {
		return fmt.Errorf(copyErrorTemplateConstant, destinationPath, closeError)
	}

	downloader.logger.Debug(downloadCompletedMessageConstant, zap.String(logFieldDestinationConstant, destinationPath), zap.Int64(logFieldBytesConstant, copiedBytes))
	return nil
}

// DownloadAndExtract downloads a zip archive to destinationDirectory/archiveName,
// extracts it into destinationDirectory and removes the archive.
func (downloader *Downloader) DownloadAndExtract(executionContext context.Context, url string, archiveName string, destinationDirectory string) error {
	archivePath := filepath.Join(destinationDirectory, archiveName)
	if downloadError := downloader.DownloadFile(executionContext, url, archivePath); downloadError != nil {
		return downloadError
	}

	extractError := downloader.extract(archivePath, destinationDirectory)
	if removeError := downloader.fileSystem.Remove(archivePath); removeError != nil && extractError == nil {
		return fmt.Errorf(removeArchiveErrorTemplateConstant, archivePath, removeError)
	}
	return extractError
}

// RemoveAll deletes path recursively.
func (downloader *Downloader) RemoveAll(path string) error {
	return downloader.fileSystem.RemoveAll(path)
}

func (downloader *Downloader) extract(archivePath string, destinationDirectory string) error {
	archive, openError := zip.OpenReader(archivePath)
	if openError != nil {
		return fmt.Errorf(openArchiveErrorTemplateConstant, archivePath, openError)
	}
	defer archive.Close()

	for _, archiveEntry := range archive.File {
		targetPath, resolveError := resolveEntryPath(destinationDirectory, archiveEntry.Name)
		if resolveError != nil {
			return resolveError
		}

		if archiveEntry.FileInfo().IsDir() {
			if mkdirError := downloader.fileSystem.MkdirAll(targetPath, directoryPermissionsConstant); mkdirError != nil {
				return fmt.Errorf(createDirectoryErrorTemplateConstant, targetPath, mkdirError)
			}
			continue
		}

		if writeError := downloader.extractFile(archiveEntry, targetPath); writeError != nil {
			return writeError
		}
	}

	downloader.logger.Info(archiveExtractedMessageConstant, zap.String(logFieldDestinationConstant, destinationDirectory), zap.Int(logFieldEntriesConstant, len(archive.File)))
	return nil
}

func (downloader *Downloader) extractFile(archiveEntry *zip.File, targetPath string) error {
	if mkdirError := downloader.fileSystem.MkdirAll(filepath.Dir(targetPath), directoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(createDirectoryErrorTemplateConstant, filepath.Dir(targetPath), mkdirError)
	}

	entryReader, openError := archiveEntry.Open()
	if openError != nil {
		return fmt.Errorf(openArchiveEntryErrorTemplateConstant, archiveEntry.Name, openError)
	}
	defer entryReader.Close()

	permissions := archiveEntry.Mode().Perm()
	if permissions == 0 {
		permissions = filePermissionsConstant
	}

	destination, createError := downloader.fileSystem.Create(targetPath, permissions)
	if createError != nil {
		return fmt.Errorf(createFileErrorTemplateConstant, targetPath, createError)
	}

	_, copyError := io.Copy(destination, entryReader)
	closeError := destination.Close()
	if copyError != nil {
		return fmt.Errorf(copyErrorTemplateConstant, targetPath, copyError)
	}
	if closeError != nil {
		return fmt.Errorf(copyErrorTemplateConstant, targetPath, closeError)
	}
	return nil
}

func resolveEntryPath(destinationDirectory string, entryName string) (string, error) {
	targetPath := filepath.Join(destinationDirectory, filepath.FromSlash(entryName))
	relativePath, relativeError := filepath.Rel(destinationDirectory, targetPath)
	if relativeError != nil || relativePath == parentDirectoryReferenceConstant || strings.HasPrefix(relativePath, parentDirectoryReferenceConstant+string(filepath.Separator)) {
		return "", fmt.Errorf(archiveEntryEscapesTemplateConstant, entryName, destinationDirectory)
	}
	return targetPath, nil
}
