package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial         TransactionType = "initial"
	TransactionTypeTransferIn      TransactionType = "transfer_in"
	TransactionTypeTransferOut     TransactionType = "transfer_out"
	TransactionTypeRaceEntryFee    TransactionType = "race_entry_fee"
	TransactionTypeRaceEntryRefund TransactionType = "race_entry_refund"
	TransactionTypeRaceBet         TransactionType = "race_bet"
	TransactionTypeRaceBetRefund   TransactionType = "race_bet_refund"
	TransactionTypeRacePayout      TransactionType = "race_payout"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID              int64           `db:"id"`
	DiscordID       int64           `db:"discord_id"`
	GuildID         int64           `db:"guild_id"`
	BalanceBefore   int64           `db:"balance_before"`
	BalanceAfter    int64           `db:"balance_after"`
	ChangeAmount    int64           `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	RelatedID       *int64          `db:"related_id"`
	CreatedAt       time.Time       `db:"created_at"`
}
