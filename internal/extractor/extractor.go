package extractor

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/quantmind-br/repofetch-go/internal/domain"
	"github.com/quantmind-br/repofetch-go/internal/utils"
)

// Archive magic numbers
var (
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	gzipMagic = []byte{0x1f, 0x8b}
)

// Extractor writes the archive entries that fall under a requested
// subpath into a destination directory, preserving relative structure.
type Extractor struct {
	logger   *utils.Logger
	progress domain.ProgressReporter
}

// ExtractorOptions contains options for creating an Extractor
type ExtractorOptions struct {
	Logger   *utils.Logger
	Progress domain.ProgressReporter
}

// New creates a new Extractor
func New(opts ExtractorOptions) *Extractor {
	progress := opts.Progress
	if progress == nil {
		progress = domain.NopProgress{}
	}
	return &Extractor{
		logger:   opts.Logger,
		progress: progress,
	}
}

// Extract reads the archive at archivePath and writes every file entry
// under ref.SubPath into destDir. The single top-level directory the
// provider wraps the tree in is stripped whatever its name is. Zero
// matching entries is a failure so a mistyped subpath never produces a
// silently empty output.
func (e *Extractor) Extract(archivePath string, ref *domain.RepoRef, destDir string) (*domain.ExtractionResult, error) {
	format, err := detectFormat(archivePath)
	if err != nil {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
	}

	var result *domain.ExtractionResult
	switch format {
	case "zip":
		result, err = e.extractZip(archivePath, ref.SubPath, destDir)
	case "tar.gz":
		result, err = e.extractTarGz(archivePath, ref.SubPath, destDir)
	}
	if err != nil {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
	}

	if result.FilesWritten == 0 {
		return nil, &domain.ExtractionError{
			Archive: archivePath,
			Err:     fmt.Errorf("%w: %q", domain.ErrFolderNotFound, ref.SubPath),
		}
	}

	if e.logger != nil {
		e.logger.Debug().
			Int("written", result.FilesWritten).
			Int("skipped", result.Skipped).
			Int64("bytes", result.BytesWritten).
			Msg("Extraction finished")
	}

	return result, nil
}

func (e *Extractor) extractZip(archivePath, subPath, destDir string) (*domain.ExtractionResult, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	total := 0
	for _, file := range reader.File {
		entry := toEntry(file.Name, file.FileInfo().IsDir(), int64(file.UncompressedSize64))
		if entry == nil || entry.IsDir {
			continue
		}
		if _, ok := underSubPath(entry.Path, subPath); ok {
			total++
		}
	}

	e.progress.StartExtract(total)
	defer e.progress.Finish()

	result := &domain.ExtractionResult{}
	for _, file := range reader.File {
		entry := toEntry(file.Name, file.FileInfo().IsDir(), int64(file.UncompressedSize64))
		if entry == nil {
			continue
		}

		err := e.writeEntry(entry, subPath, destDir, result, func() (io.ReadCloser, error) {
			return file.Open()
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (e *Extractor) extractTarGz(archivePath, subPath, destDir string) (*domain.ExtractionResult, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer gzr.Close()

	// Streaming read, total unknown up front
	e.progress.StartExtract(-1)
	defer e.progress.Finish()

	tr := tar.NewReader(gzr)
	result := &domain.ExtractionResult{}

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tar read: %w", err)
		}

		if header.Typeflag != tar.TypeDir && header.Typeflag != tar.TypeReg {
			continue
		}

		entry := toEntry(header.Name, header.Typeflag == tar.TypeDir, header.Size)
		if entry == nil {
			continue
		}

		err = e.writeEntry(entry, subPath, destDir, result, func() (io.ReadCloser, error) {
			return io.NopCloser(tr), nil
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// writeEntry applies the subpath filter to one entry and writes it.
// Directory entries only cause directory creation; file entries outside
// the subpath are counted as skipped.
func (e *Extractor) writeEntry(entry *domain.ArchiveEntry, subPath, destDir string, result *domain.ExtractionResult, open func() (io.ReadCloser, error)) error {
	rel, ok := underSubPath(entry.Path, subPath)
	if !ok {
		if !entry.IsDir {
			result.Skipped++
		}
		return nil
	}

	if rel == "" {
		// The subpath directory itself
		return os.MkdirAll(destDir, 0755)
	}

	target := filepath.Join(destDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
		// Entry escapes the destination, treat it as foreign
		if !entry.IsDir {
			result.Skipped++
		}
		return nil
	}

	if entry.IsDir {
		return os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	src, err := open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", entry.Path, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}
	if err := dst.Close(); err != nil {
		return err
	}

	result.FilesWritten++
	result.BytesWritten += n
	e.progress.AddFile()

	return nil
}

// toEntry strips the archive's top-level directory from an entry name.
// It returns nil for the top-level directory itself and for degenerate
// names. The first segment is dropped whatever it is called; the
// <repo>-<ref> convention is not relied on because refs may contain
// slashes.
func toEntry(name string, isDir bool, size int64) *domain.ArchiveEntry {
	name = strings.TrimPrefix(name, "./")
	parts := strings.SplitN(name, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return nil
	}

	rel := utils.SanitizePath(parts[1])
	if rel == "" {
		return nil
	}

	return &domain.ArchiveEntry{
		Path:  rel,
		IsDir: isDir,
		Size:  size,
	}
}

// underSubPath reports whether rel (top level already stripped) falls
// under subPath and returns the remainder relative to it. An empty
// subPath matches everything.
func underSubPath(rel, subPath string) (string, bool) {
	if subPath == "" {
		return rel, true
	}
	if rel == subPath {
		return "", true
	}
	if strings.HasPrefix(rel, subPath+"/") {
		return rel[len(subPath)+1:], true
	}
	return "", false
}

// detectFormat sniffs the archive type from its magic bytes. Codeload
// serves zip, the github.com archive endpoint serves tar.gz.
func detectFormat(archivePath string) (string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	magic := make([]byte, 4)
	n, err := io.ReadFull(file, magic)
	if err != nil && n < 2 {
		return "", fmt.Errorf("archive too short to identify")
	}

	switch {
	case bytes.HasPrefix(magic[:n], zipMagic):
		return "zip", nil
	case bytes.HasPrefix(magic[:n], gzipMagic):
		return "tar.gz", nil
	default:
		return "", fmt.Errorf("unrecognized archive format")
	}
}
