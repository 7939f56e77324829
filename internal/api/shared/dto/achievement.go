package dto

import (
	"time"

	"github.com/feral-file/achievement-minter/internal/minter"
	"github.com/feral-file/achievement-minter/internal/store/schema"
)

// MintRunResponse is returned by the manual trigger
type MintRunResponse struct {
	TotalMinted   int   `json:"totalMinted"`
	Failed        int   `json:"failed"`
	AlreadyMinted int   `json:"alreadyMinted"`
	Skipped       bool  `json:"skipped,omitempty"`
	DurationMs    int64 `json:"durationMs"`
}

// BacklogResponse reports how many goals are waiting to be minted
type BacklogResponse struct {
	// PendingCount includes goals that fail on every run until their owner data is fixed
	PendingCount int64 `json:"pendingCount"`
	// Running is true while a run is in flight in the serving process
	Running bool `json:"running"`
}

// LastRunResponse describes the latest recorded run
type LastRunResponse struct {
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	TotalMinted   int       `json:"totalMinted"`
	Failed        int       `json:"failed"`
	AlreadyMinted int       `json:"alreadyMinted"`
	TriggeredBy   string    `json:"triggeredBy"`
	Error         string    `json:"error,omitempty"`
}

// MintRecordResponse is the public view of a minted achievement
type MintRecordResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	GoalID          string     `json:"goalId"`
	TokenID         *string    `json:"tokenId"`
	TxHash          string     `json:"txHash"`
	Chain           string     `json:"chain"`
	ContractAddress string     `json:"contractAddress"`
	Description     string     `json:"description"`
	GoalCompletedAt time.Time  `json:"goalCompletedAt"`
	ConfirmedAt     *time.Time `json:"confirmedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// MintRecordListResponse is a page of a user's achievements
type MintRecordListResponse struct {
	Items  []MintRecordResponse `json:"items"`
	Total  uint64               `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// MapRunResultToDTO maps a run result to its response
func MapRunResultToDTO(result minter.RunResult) *MintRunResponse {
	return &MintRunResponse{
		TotalMinted:   result.TotalMinted,
		Failed:        result.Failed,
		AlreadyMinted: result.AlreadyMinted,
		Skipped:       result.Skipped,
		DurationMs:    result.Duration.Milliseconds(),
	}
}

// MapRunSummaryToDTO maps a persisted run summary to its response
func MapRunSummaryToDTO(summary *minter.RunSummary) *LastRunResponse {
	return &LastRunResponse{
		StartedAt:     summary.StartedAt,
		FinishedAt:    summary.FinishedAt,
		TotalMinted:   summary.TotalMinted,
		Failed:        summary.Failed,
		AlreadyMinted: summary.AlreadyMinted,
		TriggeredBy:   summary.TriggeredBy,
		Error:         summary.Error,
	}
}

// MapMintRecordToDTO maps a mint record row to its response
func MapMintRecordToDTO(record schema.MintRecord) MintRecordResponse {
	return MintRecordResponse{
		ID:              record.ID.String(),
		UserID:          record.UserID.String(),
		GoalID:          record.GoalID.String(),
		TokenID:         record.TokenID,
		TxHash:          record.TxHash,
		Chain:           record.Chain.String(),
		ContractAddress: record.ContractAddress,
		Description:     record.Description,
		GoalCompletedAt: record.GoalCompletedAt,
		ConfirmedAt:     record.ConfirmedAt,
		CreatedAt:       record.CreatedAt,
	}
}
