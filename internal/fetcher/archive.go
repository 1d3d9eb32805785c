package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/quantmind-br/repofetch-go/internal/domain"
	"github.com/quantmind-br/repofetch-go/internal/utils"
)

// Archive endpoint bases, overridable in tests
const (
	DefaultCodeloadBase = "https://codeload.github.com"
	DefaultArchiveBase  = "https://github.com"
)

// ArchiveFetcher downloads repository snapshot archives to a temporary
// file, retrying transient failures with exponential backoff.
type ArchiveFetcher struct {
	httpClient   *http.Client
	logger       *utils.Logger
	progress     domain.ProgressReporter
	retrier      *Retrier
	timeout      time.Duration
	codeloadBase string
	archiveBase  string
}

// ArchiveFetcherOptions contains options for creating an ArchiveFetcher
type ArchiveFetcherOptions struct {
	HTTPClient   *http.Client
	Logger       *utils.Logger
	Progress     domain.ProgressReporter
	Retrier      *Retrier
	Timeout      time.Duration // per attempt
	CodeloadBase string
	ArchiveBase  string
}

// NewArchiveFetcher creates a new ArchiveFetcher
func NewArchiveFetcher(opts ArchiveFetcherOptions) *ArchiveFetcher {
	client := opts.HTTPClient
	if client == nil {
		client = NewHTTPClient()
	}
	retrier := opts.Retrier
	if retrier == nil {
		retrier = NewRetrier(DefaultRetrierOptions())
	}
	progress := opts.Progress
	if progress == nil {
		progress = domain.NopProgress{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	codeloadBase := opts.CodeloadBase
	if codeloadBase == "" {
		codeloadBase = DefaultCodeloadBase
	}
	archiveBase := opts.ArchiveBase
	if archiveBase == "" {
		archiveBase = DefaultArchiveBase
	}

	return &ArchiveFetcher{
		httpClient:   client,
		logger:       opts.Logger,
		progress:     progress,
		retrier:      retrier,
		timeout:      timeout,
		codeloadBase: codeloadBase,
		archiveBase:  archiveBase,
	}
}

// ArchiveURLs returns the candidate snapshot URLs for a ref, most
// specific first. The codeload endpoint serves branch snapshots as zip;
// the github.com archive endpoint also resolves tags and commits and
// serves tar.gz.
func (f *ArchiveFetcher) ArchiveURLs(ref *domain.RepoRef) []string {
	return []string{
		fmt.Sprintf("%s/%s/%s/zip/refs/heads/%s", f.codeloadBase, ref.Owner, ref.Repo, ref.Ref),
		fmt.Sprintf("%s/%s/%s/archive/%s.tar.gz", f.archiveBase, ref.Owner, ref.Repo, ref.Ref),
	}
}

// Fetch downloads the snapshot archive for ref and returns the path of
// the temporary file holding it. The caller owns the file and must
// remove it. A 404 on the primary endpoint falls through to the next
// candidate without retrying; every other failure is final.
func (f *ArchiveFetcher) Fetch(ctx context.Context, ref *domain.RepoRef) (string, error) {
	tmp, err := os.CreateTemp("", "repofetch-*.archive")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer tmp.Close()

	candidates := f.ArchiveURLs(ref)
	var lastErr error

	for i, archiveURL := range candidates {
		if f.logger != nil {
			f.logger.Debug().Str("archive_url", archiveURL).Msg("Downloading archive")
		}

		attempts, err := f.retrier.Do(ctx, func() error {
			return f.downloadTo(ctx, archiveURL, tmp)
		})
		if err == nil {
			return tmp.Name(), nil
		}

		lastErr = &domain.DownloadError{URL: archiveURL, Attempts: attempts, Err: err}

		if isNotFound(err) && i < len(candidates)-1 {
			if f.logger != nil {
				f.logger.Debug().Str("archive_url", archiveURL).Msg("Archive not found, trying alternative endpoint")
			}
			continue
		}
		break
	}

	os.Remove(tmp.Name())
	return "", lastErr
}

// downloadTo performs a single download attempt, streaming the response
// body into file. The file is rewound and truncated first so a retried
// attempt never appends to a partial body.
func (f *ArchiveFetcher) downloadTo(ctx context.Context, archiveURL string, file *os.File) error {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := file.Truncate(0); err != nil {
		return err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return domain.NewRequestError(archiveURL, 0, err)
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.NewRequestError(archiveURL, 0, fmt.Errorf("%w after %s", domain.ErrTimeout, f.timeout))
		}
		return domain.NewRequestError(archiveURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewRequestError(archiveURL, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	f.progress.StartDownload(resp.ContentLength)
	defer f.progress.Finish()

	if _, err := io.Copy(io.MultiWriter(file, &progressWriter{reporter: f.progress}), resp.Body); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.NewRequestError(archiveURL, 0, fmt.Errorf("%w after %s", domain.ErrTimeout, f.timeout))
		}
		return domain.NewRequestError(archiveURL, 0, err)
	}

	return file.Sync()
}

func isNotFound(err error) bool {
	var reqErr *domain.RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}

// progressWriter forwards written byte counts to a ProgressReporter
type progressWriter struct {
	reporter domain.ProgressReporter
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.reporter.AddBytes(len(p))
	return len(p), nil
}

// NewHTTPClient creates the HTTP client used for archive downloads.
// Per-attempt timeouts come from the request context, not the client.
func NewHTTPClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}
