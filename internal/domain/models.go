package domain

import "time"

// RepoRef identifies a repository snapshot and an optional folder inside it.
// Immutable once produced by the parser; Ref is filled in later when the URL
// did not carry one.
type RepoRef struct {
	Owner   string
	Repo    string
	Ref     string // branch, tag, or commit; empty until resolved
	SubPath string // folder inside the repository, "" means whole tree
}

// Slug returns the owner/repo pair.
func (r *RepoRef) Slug() string {
	return r.Owner + "/" + r.Repo
}

// RepoURL returns the canonical repository URL without any tree suffix.
func (r *RepoRef) RepoURL() string {
	return "https://github.com/" + r.Owner + "/" + r.Repo
}

// HasRef reports whether the URL carried an explicit ref.
func (r *RepoRef) HasRef() bool {
	return r.Ref != ""
}

// DownloadTask is the single unit of work the orchestrator drives.
// Created once from CLI input and never mutated.
type DownloadTask struct {
	Ref        *RepoRef
	OutputDir  string        // resolved output directory
	Timeout    time.Duration // per network attempt
	MaxRetries int
	Force      bool // overwrite an existing output directory
}

// ArchiveEntry describes one entry while iterating a downloaded archive.
// Ephemeral; not retained after extraction.
type ArchiveEntry struct {
	Path  string // path inside the archive, top-level directory already stripped
	IsDir bool
	Size  int64
}

// ExtractionResult accumulates counters during selective extraction.
type ExtractionResult struct {
	FilesWritten int
	BytesWritten int64
	Skipped      int // file entries outside the requested subpath
}
