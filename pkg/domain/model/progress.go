package model

// ProgressEvent is emitted once per package after it reaches StageDone.
// Index is the package's position in the batch input, so events stay
// attributable when packages complete out of order.
type ProgressEvent struct {
	BatchID   string  `json:"batch_id"`
	Index     int     `json:"index"`
	Package   Package `json:"package"`
	Outcome   Outcome `json:"outcome"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
}
