package models

import "time"

// ImageReference is one (source, alt) pair extracted from a rendered page
type ImageReference struct {
	SourceURL string `json:"source_url"`
	AltText   string `json:"alt_text"`
}

// PageVisit is the working state of one crawl iteration
type PageVisit struct {
	Identity      string           `json:"identity"`
	SequenceIndex int              `json:"sequence_index"`
	FolderPath    string           `json:"folder_path"`
	References    []ImageReference `json:"references"`
}

// DownloadOutcome records the result of saving one reference
type DownloadOutcome struct {
	Reference       ImageReference `json:"reference"`
	ResolvedURL     string         `json:"resolved_url"`
	DestinationPath string         `json:"destination_path"`
	Bytes           int64          `json:"bytes"`
	Duration        time.Duration  `json:"duration"`
	Err             error          `json:"-"`
}

// Success reports whether the download completed without error
func (o DownloadOutcome) Success() bool {
	return o.Err == nil
}

// State is a CrawlController state
type State string

const (
	StateInit        State = "init"
	StateNavigating  State = "navigating"
	StateExtracting  State = "extracting"
	StateDownloading State = "downloading"
	StatePaginating  State = "paginating"
	StateTerminated  State = "terminated"
)

// Terminal is the final result of a crawl session
type Terminal string

const (
	TerminalNone    Terminal = "none"
	TerminalSuccess Terminal = "success"
	TerminalFailure Terminal = "failure"
)

// CrawlSession tracks one crawl from start until the browser closes
type CrawlSession struct {
	CurrentPageURL string
	VisitedCount   int
	State          State
	Terminal       Terminal
	Err            error
	StartedAt      time.Time
	FinishedAt     time.Time
}
