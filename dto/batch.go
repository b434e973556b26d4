package dto

import "time"

// DownloadBatch is the scratch directory holding one message's materialized files.
type DownloadBatch struct {
	Dir       string
	CreatedAt time.Time
}
