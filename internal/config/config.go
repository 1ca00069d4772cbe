package config

const (
	DefaultTimeZone = "Asia/Seoul"

	// Header detection
	HeaderScanRows      = 10
	MinHeaderCells      = 3
	UniquenessThreshold = 0.5

	MaxUploadBytes = 32 << 20

	// Manufacturer backfill sweep
	DefaultBackfillSchedule = "*/30 * * * *"

	DefaultHTTPPort = 8143
	DefaultPageSize = 20
)
