package fetcher_test

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/repofetch-go/internal/domain"
	"github.com/quantmind-br/repofetch-go/internal/fetcher"
)

func zipPayload(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func newTestFetcher(serverURL string, maxAttempts int) *fetcher.ArchiveFetcher {
	return fetcher.NewArchiveFetcher(fetcher.ArchiveFetcherOptions{
		HTTPClient:   &http.Client{},
		Timeout:      5 * time.Second,
		CodeloadBase: serverURL,
		ArchiveBase:  serverURL,
		Retrier: fetcher.NewRetrier(fetcher.RetrierOptions{
			MaxAttempts:     maxAttempts,
			InitialInterval: time.Millisecond,
			MaxInterval:     10 * time.Millisecond,
		}),
	})
}

type recordingProgress struct {
	mu    sync.Mutex
	bytes int
}

func (p *recordingProgress) StartDownload(int64) {}
func (p *recordingProgress) AddBytes(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bytes += n
}
func (p *recordingProgress) StartExtract(int) {}
func (p *recordingProgress) AddFile()         {}
func (p *recordingProgress) Finish()          {}

func TestArchiveFetcher_DownloadsToTempFile(t *testing.T) {
	payload := zipPayload(t, map[string]string{"repo-main/a.txt": "hello"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/owner/repo/zip/refs/heads/main", r.URL.Path)
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	progress := &recordingProgress{}
	f := fetcher.NewArchiveFetcher(fetcher.ArchiveFetcherOptions{
		HTTPClient:   &http.Client{},
		Timeout:      5 * time.Second,
		CodeloadBase: server.URL,
		ArchiveBase:  server.URL,
		Progress:     progress,
	})

	ref := &domain.RepoRef{Owner: "owner", Repo: "repo", Ref: "main"}
	path, err := f.Fetch(context.Background(), ref)
	require.NoError(t, err)
	defer os.Remove(path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, len(payload), progress.bytes)
}

func TestArchiveFetcher_NotFoundFailsAfterOneAttemptPerEndpoint(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 3)
	ref := &domain.RepoRef{Owner: "owner", Repo: "repo", Ref: "gone"}

	_, err := f.Fetch(context.Background(), ref)
	require.Error(t, err)

	var downloadErr *domain.DownloadError
	require.ErrorAs(t, err, &downloadErr)
	assert.Equal(t, 1, downloadErr.Attempts)

	var reqErr *domain.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)

	// One attempt against codeload, one against the archive fallback, no retries
	assert.Equal(t, 2, requests)
}

func TestArchiveFetcher_RetriesTransientFailures(t *testing.T) {
	payload := zipPayload(t, map[string]string{"repo-main/a.txt": "hello"})

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 3)
	ref := &domain.RepoRef{Owner: "owner", Repo: "repo", Ref: "main"}

	path, err := f.Fetch(context.Background(), ref)
	require.NoError(t, err)
	defer os.Remove(path)

	assert.Equal(t, 3, requests)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestArchiveFetcher_ExhaustedRetriesSurfaceAttemptCount(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 3)
	ref := &domain.RepoRef{Owner: "owner", Repo: "repo", Ref: "main"}

	_, err := f.Fetch(context.Background(), ref)
	require.Error(t, err)

	var downloadErr *domain.DownloadError
	require.ErrorAs(t, err, &downloadErr)
	assert.Equal(t, 3, downloadErr.Attempts)
	assert.Equal(t, 3, requests)
}

func TestArchiveFetcher_FallsBackToArchiveEndpoint(t *testing.T) {
	payload := []byte{0x1f, 0x8b, 0x08, 0x00} // gzip magic is enough for the fetcher

	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.Contains(r.URL.Path, "/zip/") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 3)
	ref := &domain.RepoRef{Owner: "owner", Repo: "repo", Ref: "v1.0.0"}

	path, err := f.Fetch(context.Background(), ref)
	require.NoError(t, err)
	defer os.Remove(path)

	require.Len(t, paths, 2)
	assert.Equal(t, "/owner/repo/zip/refs/heads/v1.0.0", paths[0])
	assert.Equal(t, "/owner/repo/archive/v1.0.0.tar.gz", paths[1])

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestArchiveFetcher_TruncatesPartialBodyBetweenAttempts(t *testing.T) {
	payload := zipPayload(t, map[string]string{"repo-main/a.txt": "hello"})

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			// Larger garbage body with a retryable status
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write(bytes.Repeat([]byte("x"), len(payload)*4))
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 3)
	ref := &domain.RepoRef{Owner: "owner", Repo: "repo", Ref: "main"}

	path, err := f.Fetch(context.Background(), ref)
	require.NoError(t, err)
	defer os.Remove(path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestArchiveFetcher_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 3)
	ref := &domain.RepoRef{Owner: "owner", Repo: "repo", Ref: "main"}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := f.Fetch(ctx, ref)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond, "cancellation should stop the download early")
}
