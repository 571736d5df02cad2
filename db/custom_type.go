package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PricingSnapshot is the frozen record of a price computation, captured at
// booking time and stored on the booking as jsonb. It holds the rule identity,
// every input that went into the computation and the resulting price, so a
// booking stays priced as it was even if the rule is edited or soft-deleted
// afterwards.
type PricingSnapshot struct {
	RuleID             uuid.UUID `json:"rule_id"`
	RuleName           string    `json:"rule_name"`
	PlayerBased        bool      `json:"player_based"`
	PlayersCount       int       `json:"players_count"`
	BasePrice          int       `json:"base_price"`
	BasePlayersCount   *int      `json:"base_players_count,omitempty"`
	SurchargePerPlayer *int      `json:"surcharge_per_player,omitempty"`
	Price              int       `json:"price"`
}

// Value implements driver.Valuer so gorm writes the snapshot as jsonb.
func (snapshot PricingSnapshot) Value() (driver.Value, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for reading the jsonb column back.
func (snapshot *PricingSnapshot) Scan(value any) error {
	if value == nil {
		*snapshot = PricingSnapshot{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for pricing snapshot: %T", value)
	}

	return json.Unmarshal(data, snapshot)
}
