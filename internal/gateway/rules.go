package gateway

import (
	"fmt"
	"time"

	"github.com/aimd54/kibo-gamification/internal/config"
	"github.com/aimd54/kibo-gamification/internal/models"
)

// Rules holds the XP reward table and calendar settings.
type Rules struct {
	XPRewards       map[string]int
	DailyLoginBonus int
	Location        *time.Location
}

// RulesFromConfig builds rules from the gamification config section.
func RulesFromConfig(cfg *config.GamificationConfig) (Rules, error) {
	loc, err := cfg.GetLocation()
	if err != nil {
		return Rules{}, fmt.Errorf("invalid gamification timezone: %w", err)
	}
	rewards := cfg.XPRewards
	if len(rewards) == 0 {
		rewards = config.DefaultXPRewards
	}
	return Rules{
		XPRewards:       rewards,
		DailyLoginBonus: cfg.DailyLoginBonus,
		Location:        loc,
	}, nil
}

// Actions granted by procedures other than award_xp.
const (
	ActionAchievement = "achievement"
	ActionDailyLogin  = "daily_login"
)

// reward resolves the XP for an action. custom overrides the table when set.
func (r Rules) reward(action string, custom *int) (int, error) {
	if custom != nil {
		if *custom < 0 {
			return 0, ErrNegativeXP
		}
		return *custom, nil
	}
	xp, ok := r.XPRewards[action]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return xp, nil
}

func problemAction(difficulty string) (string, error) {
	switch difficulty {
	case "easy", "medium", "hard":
		return "problem_solved_" + difficulty, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, difficulty)
	}
}

func assessmentAction(passed bool) string {
	if passed {
		return "assessment_passed"
	}
	return "assessment_failed"
}

// applicationMove describes what a status transition earns.
type applicationMove struct {
	action string // empty when the move earns nothing
	sent   bool   // the application left the wishlist for the first time
}

// classifyApplicationMove applies the pipeline rules: forward moves earn the target stage's
// reward, a move to rejected earns the consolation reward, backward moves earn nothing.
func classifyApplicationMove(oldStatus, newStatus string) (applicationMove, error) {
	if oldStatus == "" {
		oldStatus = models.ApplicationStatusWishlist
	}
	if !models.IsValidApplicationStatus(oldStatus) {
		return applicationMove{}, fmt.Errorf("%w: %q", ErrInvalidStatus, oldStatus)
	}
	if !models.IsValidApplicationStatus(newStatus) {
		return applicationMove{}, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	var move applicationMove
	if oldStatus == newStatus {
		return move, nil
	}

	oldIdx, newIdx := models.StageIndex(oldStatus), models.StageIndex(newStatus)
	switch {
	case newStatus == models.ApplicationStatusRejected:
		move.action = "application_rejected"
	case oldStatus == models.ApplicationStatusRejected:
		// Reopening a rejected application earns nothing.
	case newIdx > oldIdx:
		move.action = "application_" + newStatus
	}

	move.sent = oldStatus == models.ApplicationStatusWishlist && newIdx >= 1
	return move, nil
}
