package model

// StatusTransitionRequest 单个实体的状态变更请求，仅在请求进行中存在
type StatusTransitionRequest[S comparable] struct {
	EntityID      int64  `json:"entity_id"`
	Target        S      `json:"target"`
	Justification string `json:"justification,omitempty"`
}

// BulkOperationResult 批量操作全部结束后的统计
type BulkOperationResult struct {
	SucceededCount int     `json:"succeeded_count"`
	FailedCount    int     `json:"failed_count"`
	FailedIDs      []int64 `json:"failed_ids,omitempty"`
}
