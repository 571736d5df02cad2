package booking

import "github.com/uxpromo/limboquest-api/db"

// Evaluate computes the price for playersCount under the given rule and
// returns the immutable snapshot that gets stored on the booking. Pure
// function of its inputs: no queries, no clock.
//
// Player-based rules cover up to base_players_count players with the base
// price and add a flat surcharge per extra player; fewer players than the
// base count earn no rebate. Flat rules (gift cards) ignore the player count.
func Evaluate(rule *db.PricingRule, playersCount int) (db.PricingSnapshot, error) {
	if playersCount < 1 {
		return db.PricingSnapshot{}, ErrPlayerCountOutOfRange
	}
	if !rule.IsActive {
		return db.PricingSnapshot{}, ErrRuleInactive
	}

	snapshot := db.PricingSnapshot{
		RuleID:       rule.ID,
		RuleName:     rule.Name,
		PlayersCount: playersCount,
		BasePrice:    rule.BasePrice,
	}

	if rule.IsPlayerBased() {
		snapshot.PlayerBased = true
		snapshot.BasePlayersCount = rule.BasePlayersCount
		snapshot.SurchargePerPlayer = rule.SurchargePerPlayer

		extra := playersCount - *rule.BasePlayersCount
		if extra < 0 {
			extra = 0
		}
		snapshot.Price = rule.BasePrice + extra*(*rule.SurchargePerPlayer)
		return snapshot, nil
	}

	snapshot.Price = rule.BasePrice
	return snapshot, nil
}
