package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/kibo-gamification/internal/config"
	"github.com/aimd54/kibo-gamification/internal/models"
)

func TestClassifyApplicationMove(t *testing.T) {
	tests := []struct {
		name   string
		old    string
		new    string
		action string
		sent   bool
	}{
		{"wishlist to applied", "wishlist", "applied", "application_applied", true},
		{"empty old means wishlist", "", "applied", "application_applied", true},
		{"skip ahead", "wishlist", "interview", "application_interview", true},
		{"forward", "applied", "oa", "application_oa", false},
		{"backward", "interview", "oa", "", false},
		{"same", "oa", "oa", "", false},
		{"rejected", "interview", "rejected", "application_rejected", false},
		{"reopen", "rejected", "applied", "", false},
		{"wishlist to rejected", "wishlist", "rejected", "application_rejected", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			move, err := classifyApplicationMove(tt.old, tt.new)
			require.NoError(t, err)
			assert.Equal(t, tt.action, move.action)
			assert.Equal(t, tt.sent, move.sent)
		})
	}

	_, err := classifyApplicationMove("applied", "nope")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	_, err = classifyApplicationMove("nope", "applied")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestRulesReward(t *testing.T) {
	rules := Rules{XPRewards: config.DefaultXPRewards}

	xp, err := rules.reward("problem_solved_medium", nil)
	require.NoError(t, err)
	assert.Equal(t, 25, xp)

	custom := 7
	xp, err = rules.reward("anything", &custom)
	require.NoError(t, err)
	assert.Equal(t, 7, xp)

	_, err = rules.reward("anything", nil)
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

func TestRulesFromConfig(t *testing.T) {
	rules, err := RulesFromConfig(&config.GamificationConfig{DailyLoginBonus: 5, Timezone: "Europe/Paris"})
	require.NoError(t, err)
	assert.Equal(t, 5, rules.DailyLoginBonus)
	assert.Equal(t, config.DefaultXPRewards, rules.XPRewards)
	assert.Equal(t, "Europe/Paris", rules.Location.String())

	_, err = RulesFromConfig(&config.GamificationConfig{Timezone: "Not/AZone"})
	assert.Error(t, err)
}

func TestEvaluateCriteria(t *testing.T) {
	values := map[string]float64{"problems_solved": 5}

	tests := []struct {
		op   string
		v    float64
		want bool
	}{
		{">=", 5, true},
		{">", 5, false},
		{"<", 6, true},
		{"<=", 4, false},
		{"==", 5, true},
	}
	for _, tt := range tests {
		ok, err := evaluateCriteria(&models.AchievementCriteria{Metric: "problems_solved", Operator: tt.op, Value: tt.v}, values)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s %v", tt.op, tt.v)
	}

	_, err := evaluateCriteria(&models.AchievementCriteria{Metric: "problems_solved", Operator: "top"}, values)
	assert.Error(t, err)
	_, err = evaluateCriteria(&models.AchievementCriteria{Metric: "missing", Operator: ">="}, values)
	assert.Error(t, err)
}
