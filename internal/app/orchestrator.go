package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/quantmind-br/repofetch-go/internal/config"
	"github.com/quantmind-br/repofetch-go/internal/domain"
	"github.com/quantmind-br/repofetch-go/internal/extractor"
	"github.com/quantmind-br/repofetch-go/internal/fetcher"
	"github.com/quantmind-br/repofetch-go/internal/parser"
	"github.com/quantmind-br/repofetch-go/internal/utils"
)

// Orchestrator drives the full pipeline for one download task:
// parse -> resolve ref -> fetch archive -> extract -> move into place.
// Strictly sequential; the only retries live inside the fetcher.
type Orchestrator struct {
	cfg          *config.Config
	logger       *utils.Logger
	fetcher      *fetcher.ArchiveFetcher
	extractor    *extractor.Extractor
	detectBranch func(context.Context, string) (string, error)
}

// OrchestratorOptions contains options for creating an Orchestrator
type OrchestratorOptions struct {
	Config     *config.Config
	Logger     *utils.Logger
	HTTPClient *http.Client
	Progress   domain.ProgressReporter

	// Endpoint overrides for tests
	CodeloadBase string
	ArchiveBase  string

	// DetectBranch overrides default-branch detection; nil uses the
	// remote ref listing
	DetectBranch func(context.Context, string) (string, error)
}

// Summary is what a successful run reports back to the caller
type Summary struct {
	Ref       *domain.RepoRef
	OutputDir string
	Result    *domain.ExtractionResult
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	progress := opts.Progress
	if progress == nil {
		progress = domain.NopProgress{}
	}

	archiveFetcher := fetcher.NewArchiveFetcher(fetcher.ArchiveFetcherOptions{
		HTTPClient: opts.HTTPClient,
		Logger:     opts.Logger,
		Progress:   progress,
		Timeout:    cfg.Download.Timeout,
		Retrier: fetcher.NewRetrier(fetcher.RetrierOptions{
			MaxAttempts:     cfg.Download.Retries,
			InitialInterval: cfg.Download.InitialBackoff,
			MaxInterval:     cfg.Download.MaxBackoff,
		}),
		CodeloadBase: opts.CodeloadBase,
		ArchiveBase:  opts.ArchiveBase,
	})

	detect := opts.DetectBranch
	if detect == nil {
		detect = fetcher.DetectDefaultBranch
	}

	return &Orchestrator{
		cfg:     cfg,
		logger:  opts.Logger,
		fetcher: archiveFetcher,
		extractor: extractor.New(extractor.ExtractorOptions{
			Logger:   opts.Logger,
			Progress: progress,
		}),
		detectBranch: detect,
	}
}

// Run executes the pipeline for one URL. The first failing stage wins;
// the temporary archive and the staging directory are cleaned up on
// every exit path, so a failed run never leaves a partial output
// directory behind.
func (o *Orchestrator) Run(ctx context.Context, rawURL string) (*Summary, error) {
	ref, err := parser.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	task := &domain.DownloadTask{
		Ref:        ref,
		OutputDir:  o.resolveOutputDir(ref),
		Timeout:    o.cfg.Download.Timeout,
		MaxRetries: o.cfg.Download.Retries,
		Force:      o.cfg.Output.Overwrite,
	}

	// Overwrite policy applies before any network call
	if err := o.prepareOutputDir(task); err != nil {
		return nil, err
	}

	usedFallback := false
	if !ref.HasRef() {
		resolved := *ref
		resolved.Ref, usedFallback = o.resolveRef(ctx, ref)
		ref = &resolved
	}

	if o.logger != nil {
		o.logger.Info().
			Str("repo", ref.Slug()).
			Str("ref", ref.Ref).
			Str("subpath", ref.SubPath).
			Str("output", task.OutputDir).
			Msg("Fetching folder")
	}

	archivePath, err := o.fetcher.Fetch(ctx, ref)
	if err != nil && usedFallback && isNotFound(err) {
		// Repos predating the main default still use master
		retried := *ref
		retried.Ref = "master"
		if o.logger != nil {
			o.logger.Debug().Msg("Trying 'master' branch")
		}
		if archivePath, err = o.fetcher.Fetch(ctx, &retried); err == nil {
			ref = &retried
		}
	}
	if err != nil {
		return nil, err
	}
	defer os.Remove(archivePath)

	parent := filepath.Dir(task.OutputDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
	}

	// Extract into a staging directory next to the output so a failed
	// extraction leaves nothing behind and the final move is a rename.
	staging, err := os.MkdirTemp(parent, ".repofetch-*")
	if err != nil {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
	}
	defer os.RemoveAll(staging)

	result, err := o.extractor.Extract(archivePath, ref, staging)
	if err != nil {
		return nil, err
	}

	if err := utils.MoveDir(staging, task.OutputDir); err != nil {
		return nil, &domain.ExtractionError{Archive: archivePath, Err: err}
	}

	if o.logger != nil {
		o.logger.Info().
			Int("files", result.FilesWritten).
			Int64("bytes", result.BytesWritten).
			Int("skipped", result.Skipped).
			Str("output", task.OutputDir).
			Msg("Folder downloaded")
	}

	return &Summary{
		Ref:       ref,
		OutputDir: task.OutputDir,
		Result:    result,
	}, nil
}

// resolveOutputDir picks the output directory: the explicit config
// value, else the final subpath segment, else the repository name.
func (o *Orchestrator) resolveOutputDir(ref *domain.RepoRef) string {
	if o.cfg.Output.Directory != "" {
		return utils.SanitizePath(utils.ExpandPath(o.cfg.Output.Directory))
	}
	if ref.SubPath != "" {
		return path.Base(ref.SubPath)
	}
	return ref.Repo
}

func (o *Orchestrator) prepareOutputDir(task *domain.DownloadTask) error {
	info, err := os.Stat(task.OutputDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat output directory: %w", err)
	}

	if !task.Force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", domain.ErrOutputExists, task.OutputDir)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrOutputExists, task.OutputDir)
	}

	return os.RemoveAll(task.OutputDir)
}

// resolveRef determines the ref to download when the URL carried none.
// Detection failure falls back to the conventional default branch; the
// second return value reports that the fallback was used.
func (o *Orchestrator) resolveRef(ctx context.Context, ref *domain.RepoRef) (string, bool) {
	branch, err := o.detectBranch(ctx, ref.RepoURL())
	if err != nil {
		if o.logger != nil {
			o.logger.Warn().Err(err).Msgf("Failed to detect default branch, using %q", fetcher.FallbackBranch)
		}
		return fetcher.FallbackBranch, true
	}
	return branch, false
}

func isNotFound(err error) bool {
	var reqErr *domain.RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}
