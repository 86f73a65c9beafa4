package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aimd54/kibo-gamification/internal/metrics"
	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/internal/realtime"
	"github.com/aimd54/kibo-gamification/internal/repository"
)

// profileMetrics exposes the profile counters that achievement criteria can reference.
func profileMetrics(p *models.Profile, unlocked int) map[string]float64 {
	return map[string]float64{
		"xp":                    float64(p.XP),
		"level":                 float64(p.Level),
		"streak":                float64(p.Streak),
		"longest_streak":        float64(p.LongestStreak),
		"problems_solved":       float64(p.ProblemsSolved),
		"applications_sent":     float64(p.ApplicationsSent),
		"assessments_passed":    float64(p.AssessmentsPassed),
		"achievements_unlocked": float64(unlocked),
	}
}

// evaluateCriteria compares a metric value against criteria using the specified operator.
func evaluateCriteria(criteria *models.AchievementCriteria, values map[string]float64) (bool, error) {
	actual, ok := values[criteria.Metric]
	if !ok {
		return false, fmt.Errorf("unsupported metric: %s", criteria.Metric)
	}

	switch criteria.Operator {
	case "<":
		return actual < criteria.Value, nil
	case "<=":
		return actual <= criteria.Value, nil
	case ">":
		return actual > criteria.Value, nil
	case ">=":
		return actual >= criteria.Value, nil
	case "==":
		return actual == criteria.Value, nil
	default:
		return false, fmt.Errorf("unsupported operator: %s", criteria.Operator)
	}
}

// CheckAchievements unlocks every achievement whose criteria the user now meets and grants
// its XP reward. Each achievement is granted at most once even under concurrent checks.
func (g *Gateway) CheckAchievements(ctx context.Context, userID string) ([]models.AchievementUnlock, error) {
	unlocks := []models.AchievementUnlock{}
	var levelUps int

	err := g.run(ctx, "check_achievements", userID, func(t *txn) error {
		profile, err := t.profiles.GetByID(userID)
		if err != nil {
			return err
		}
		achievements, err := t.achievements.GetAll()
		if err != nil {
			return fmt.Errorf("failed to get achievements: %w", err)
		}
		held, err := t.achievements.UnlockedIDs(userID)
		if err != nil {
			return err
		}

		values := profileMetrics(profile, len(held))
		now := g.clock.Now()

		for i := range achievements {
			a := &achievements[i]
			if held[a.ID] {
				continue
			}

			var criteria models.AchievementCriteria
			if err := json.Unmarshal(a.Criteria, &criteria); err != nil {
				g.log.Warn().Err(err).Str("achievement", a.ID).Msg("Skipping achievement with malformed criteria")
				continue
			}
			qualifies, err := evaluateCriteria(&criteria, values)
			if err != nil {
				g.log.Warn().Err(err).Str("achievement", a.ID).Msg("Skipping achievement")
				continue
			}
			if !qualifies {
				continue
			}

			inserted, err := t.achievements.Unlock(userID, a.ID, now)
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			t.touch(realtime.TableUserAchievements, realtime.OpInsert)

			if a.XPReward > 0 {
				award, _, err := g.grant(t, a.XPReward, g.today(), nil, repository.ActivityDelta{})
				if err != nil {
					return err
				}
				if award.LeveledUp {
					levelUps++
				}
			}

			unlocks = append(unlocks, models.AchievementUnlock{
				AchievementID:   a.ID,
				AchievementName: a.Name,
				XPReward:        a.XPReward,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, u := range unlocks {
		metrics.RecordAchievementUnlocked(u.AchievementID)
		metrics.RecordXPAwarded(ActionAchievement, u.XPReward)
		g.log.Info().Str("user_id", userID).Str("achievement", u.AchievementID).Msg("Achievement unlocked")
	}
	for i := 0; i < levelUps; i++ {
		metrics.RecordLevelUp()
	}

	return unlocks, nil
}

// EvaluateAll checks achievements for every profile and returns the number of unlocks.
// Failures for one user are logged and do not stop the sweep.
func (g *Gateway) EvaluateAll(ctx context.Context) (int, error) {
	start := g.clock.Now()

	ids, err := repository.NewProfileRepository(g.withContext(ctx)).ListIDs()
	if err != nil {
		return 0, fmt.Errorf("failed to list profiles: %w", err)
	}

	total := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		unlocks, err := g.CheckAchievements(ctx, id)
		if err != nil {
			g.log.Error().Err(err).Str("user_id", id).Msg("Failed to evaluate achievements")
			continue
		}
		total += len(unlocks)
	}

	g.log.Info().
		Int("users_evaluated", len(ids)).
		Int("achievements_unlocked", total).
		Dur("duration", g.clock.Since(start)).
		Msg("Achievement sweep complete")

	return total, nil
}
