package booking

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uxpromo/limboquest-api/db"
)

func intPtr(n int) *int {
	return &n
}

func playerBasedRule(basePrice, basePlayers, surcharge int) *db.PricingRule {
	return &db.PricingRule{
		Model:              db.NewModel(),
		Name:               "Standard quest rate",
		IsForQuests:        true,
		BasePrice:          basePrice,
		BasePlayersCount:   intPtr(basePlayers),
		SurchargePerPlayer: intPtr(surcharge),
		IsActive:           true,
	}
}

func TestEvaluatePlayerBased(t *testing.T) {
	rule := playerBasedRule(3000, 4, 500)

	testCases := []struct {
		name    string
		players int
		price   int
	}{
		{name: "below base count pays base price", players: 2, price: 3000},
		{name: "exactly base count pays base price", players: 4, price: 3000},
		{name: "one extra player", players: 5, price: 3500},
		{name: "two extra players", players: 6, price: 4000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snapshot, err := Evaluate(rule, tc.players)
			require.NoError(t, err)
			require.Equal(t, tc.price, snapshot.Price)
			require.Equal(t, tc.players, snapshot.PlayersCount)
			require.True(t, snapshot.PlayerBased)
		})
	}
}

func TestEvaluateFlat(t *testing.T) {
	rule := &db.PricingRule{
		Model:          db.NewModel(),
		Name:           "Gift card 5000",
		IsForGiftCards: true,
		BasePrice:      5000,
		IsActive:       true,
	}

	// A flat rule charges the base price no matter the party size
	for _, players := range []int{1, 4, 10} {
		snapshot, err := Evaluate(rule, players)
		require.NoError(t, err)
		require.Equal(t, 5000, snapshot.Price)
		require.False(t, snapshot.PlayerBased)
	}
}

func TestEvaluateInactiveRule(t *testing.T) {
	rule := playerBasedRule(3000, 4, 500)
	rule.IsActive = false

	_, err := Evaluate(rule, 4)
	require.ErrorIs(t, err, ErrRuleInactive)
}

func TestEvaluateInvalidPlayersCount(t *testing.T) {
	rule := playerBasedRule(3000, 4, 500)

	for _, players := range []int{0, -1} {
		_, err := Evaluate(rule, players)
		require.ErrorIs(t, err, ErrPlayerCountOutOfRange)
	}
}

func TestEvaluateSnapshotRecordsRule(t *testing.T) {
	rule := playerBasedRule(3000, 4, 500)

	snapshot, err := Evaluate(rule, 6)
	require.NoError(t, err)

	// The snapshot must be self-contained: everything needed to explain the
	// price later, even after the rule is edited or deleted
	require.Equal(t, rule.ID, snapshot.RuleID)
	require.Equal(t, rule.Name, snapshot.RuleName)
	require.Equal(t, rule.BasePrice, snapshot.BasePrice)
	require.Equal(t, rule.BasePlayersCount, snapshot.BasePlayersCount)
	require.Equal(t, rule.SurchargePerPlayer, snapshot.SurchargePerPlayer)
}

func TestEvaluatePriceMonotonic(t *testing.T) {
	rule := playerBasedRule(3000, 4, 500)

	prev := 0
	for players := 1; players <= 12; players++ {
		snapshot, err := Evaluate(rule, players)
		require.NoError(t, err)
		require.GreaterOrEqual(t, snapshot.Price, prev, "price dropped at %d players", players)
		prev = snapshot.Price
	}
}
