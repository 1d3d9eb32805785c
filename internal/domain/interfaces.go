package domain

// ProgressReporter receives pipeline progress as a side channel so the
// core stages stay testable without a terminal attached.
type ProgressReporter interface {
	// StartDownload is called once per download attempt with the expected
	// byte count, or -1 when the server did not advertise one.
	StartDownload(totalBytes int64)

	// AddBytes reports bytes received from the archive endpoint.
	AddBytes(n int)

	// StartExtract is called before extraction with the number of matching
	// files, or -1 when the total is unknown up front.
	StartExtract(totalFiles int)

	// AddFile reports one file written to the output directory.
	AddFile()

	// Finish closes out the current phase display.
	Finish()
}

// NopProgress discards all progress events.
type NopProgress struct{}

func (NopProgress) StartDownload(int64) {}
func (NopProgress) AddBytes(int)        {}
func (NopProgress) StartExtract(int)    {}
func (NopProgress) AddFile()            {}
func (NopProgress) Finish()             {}
