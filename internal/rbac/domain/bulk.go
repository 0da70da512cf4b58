package domain

// SkipReasonSuperAdminExcluded marks super-admin targets excluded from bulk operations.
const SkipReasonSuperAdminExcluded = "super_admin_excluded"

// BulkFailure describes a target whose role change was rejected or failed.
type BulkFailure struct {
	TargetID string `json:"target_id"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// BulkSkip describes a target that was never evaluated.
type BulkSkip struct {
	TargetID string `json:"target_id"`
	Reason   string `json:"reason"`
}

// BulkResult reports the outcome of a bulk role change. Failures of individual targets
// never abort the batch.
type BulkResult struct {
	Updated    int           `json:"updated"`
	UpdatedIDs []string      `json:"updated_ids"`
	Failed     []BulkFailure `json:"failed"`
	Skipped    []BulkSkip    `json:"skipped"`
}

// NewBulkResult returns an empty result with non-nil slices.
func NewBulkResult() *BulkResult {
	return &BulkResult{
		UpdatedIDs: make([]string, 0),
		Failed:     make([]BulkFailure, 0),
		Skipped:    make([]BulkSkip, 0),
	}
}

// AddFailure records a failed target with the reason code of err.
func (b *BulkResult) AddFailure(targetID string, err error) {
	b.Failed = append(b.Failed, BulkFailure{TargetID: targetID, Reason: ReasonCode(err), Err: err})
}

// AddSkip records a skipped target.
func (b *BulkResult) AddSkip(targetID, reason string) {
	b.Skipped = append(b.Skipped, BulkSkip{TargetID: targetID, Reason: reason})
}

// AddUpdated records a successfully updated target.
func (b *BulkResult) AddUpdated(targetID string) {
	b.Updated++
	b.UpdatedIDs = append(b.UpdatedIDs, targetID)
}
