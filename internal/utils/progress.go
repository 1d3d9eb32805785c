package utils

import (
	"github.com/schollz/progressbar/v3"

	"github.com/quantmind-br/repofetch-go/internal/domain"
)

// Standard progress bar descriptions
const (
	DescDownloading = "Downloading"
	DescExtracting  = "Extracting"
)

// NewProgressBar creates a consistently styled progress bar.
// A total below zero switches to spinner mode for unknown totals.
func NewProgressBar(total int, description string) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts,
			progressbar.OptionShowIts(),
		)
	}

	return progressbar.NewOptions(total, opts...)
}

// NewBytesProgressBar creates a byte-denominated progress bar for downloads.
func NewBytesProgressBar(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// TerminalProgress renders pipeline progress with progressbar. It
// implements domain.ProgressReporter; the download phase shows bytes,
// the extraction phase shows files.
type TerminalProgress struct {
	bar *progressbar.ProgressBar
}

// NewTerminalProgress creates a terminal progress reporter
func NewTerminalProgress() *TerminalProgress {
	return &TerminalProgress{}
}

func (p *TerminalProgress) StartDownload(totalBytes int64) {
	p.Finish()
	p.bar = NewBytesProgressBar(totalBytes, DescDownloading)
}

func (p *TerminalProgress) AddBytes(n int) {
	if p.bar != nil {
		_ = p.bar.Add(n)
	}
}

func (p *TerminalProgress) StartExtract(totalFiles int) {
	p.Finish()
	p.bar = NewProgressBar(totalFiles, DescExtracting)
}

func (p *TerminalProgress) AddFile() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *TerminalProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

var _ domain.ProgressReporter = (*TerminalProgress)(nil)
