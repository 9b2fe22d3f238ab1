package logging

// Field keys
const (
	PageID       = "page_id"
	DatabaseID   = "database_id"
	BlockID      = "block_id"
	BlockType    = "block_type"
	Path         = "path"
	PreviousPath = "previous_path"
	Operation    = "operation"
	Attempt      = "attempt"
	Delay        = "delay"
	MaxDepth     = "max_depth"
	Kind         = "kind"
	State        = "state"
	Outcome      = "outcome"
	Duration     = "duration"
	Processed    = "processed"
	Skipped      = "skipped"
	Failed       = "failed"
	Entries      = "entries"
	CachePath    = "cache_path"
	Backend      = "backend"
	Mode         = "mode"
	Workers      = "workers"
)

// Messages
const (
	RetryingRequest      = "Retrying remote request"
	MaxDepthReached      = "Block nesting limit reached, children not fetched"
	PageDecodeErr        = "Failed to decode Page, recorded as failed"
	PageListErr          = "Failed to list Database Pages"
	PageFetchErr         = "Failed to fetch Page"
	PageBlocksFetchErr   = "Failed to fetch Page Blocks"
	PageConvertErr       = "Failed to convert Page"
	PageCommitErr        = "Failed to write Page file"
	PageFailed           = "Page failed"
	PageSkipped          = "Page unchanged, skipped"
	PageDone             = "Page synced"
	PageStateChange      = "Page state changed"
	PageRenamed          = "Page title changed, previous file kept"
	PageFilteredOut      = "Page filtered out"
	UnsupportedBlock     = "Unsupported block"
	ColumnLayoutSkipped  = "Column layout omitted"
	MalformedBlock       = "Malformed block payload rendered best effort"
	CacheCorrupt         = "Cache file unreadable, starting with empty cache"
	CacheFlushErr        = "Failed to flush cache"
	CacheLoaded          = "Cache loaded"
	CacheCleared         = "Cache cleared"
	RunStarted           = "Sync run started"
	RunFinished          = "Sync run finished"
	RunAborted           = "Sync run aborted"
	DispatchStopped      = "Dispatch stopped, waiting for in-flight pages"
	RepeatedFilesystem   = "Filesystem errors on the first pages, treating as environmental"
	ConnectionOK         = "Connection to Database verified"
	MetricsWriteErr      = "Failed to write metrics textfile"
	ConfigFileNotFound   = "Config file not found, using flags and environment"
	DryRunPlannedChanges = "Dry run, no files written"
	FileCommitted        = "File committed"
	TempFilesRemoved     = "Removed temporary files left by an interrupted run"
	CacheVersionMismatch = "Cache file has an unknown format version, starting with empty cache"
	ReportSaved          = "Sync report saved"
	CacheOpenErr         = "Failed to open cache"
	CacheOpening         = "Opening cache"
	CacheEntryRemoved    = "Page no longer reachable, cache entry removed"
	CacheRemoveErr       = "Failed to remove cache entry"
	ClientDecodeIgnored  = "Client library could not decode the response, decoding the raw body"
	BlockWithoutID       = "Block without id in response, id derived from its position"
	ConfigLoaded         = "Configuration loaded"
	ValidationErr        = "Invalid configuration"
	ReportSaveErr        = "Failed to save sync report"
)
