package domain

import (
	"strings"
	"time"
	"unicode"
)

// CompactUserInfo builds the user info string embedded in a mint call.
// It joins name and role with a colon and strips every whitespace rune.
func CompactUserInfo(name, role string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name+":"+role)
}

// AchievementMinted is the event published after a mint record has been persisted
type AchievementMinted struct {
	EventID         string     `json:"event_id"`
	MintRecordID    string     `json:"mint_record_id"`
	UserID          string     `json:"user_id"`
	GoalID          string     `json:"goal_id"`
	Chain           Chain      `json:"chain"`
	ContractAddress string     `json:"contract_address"`
	TokenID         *string    `json:"token_id"`
	TxHash          string     `json:"tx_hash"`
	Recipient       string     `json:"recipient"`
	ConfirmedAt     *time.Time `json:"confirmed_at"`
	Timestamp       time.Time  `json:"timestamp"`
}
