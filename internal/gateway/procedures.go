package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/aimd54/kibo-gamification/internal/metrics"
	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/internal/realtime"
	"github.com/aimd54/kibo-gamification/internal/repository"
	"github.com/aimd54/kibo-gamification/internal/service/progress"
)

// grant adds amount XP plus any extra counters to the profile and today's row, then
// recomputes the level. Counters are incremented in SQL, never read-modify-written.
func (g *Gateway) grant(t *txn, amount int, day time.Time, counters map[string]int, delta repository.ActivityDelta) (*models.XPResult, *models.Profile, error) {
	columns := map[string]int{"xp": amount}
	for k, v := range counters {
		columns[k] = v
	}
	if err := t.profiles.IncrementCounters(t.userID, columns); err != nil {
		return nil, nil, err
	}

	delta.XPEarned += amount
	if err := t.activities.Add(t.userID, day, delta); err != nil {
		return nil, nil, err
	}

	profile, err := t.profiles.GetByID(t.userID)
	if err != nil {
		return nil, nil, err
	}

	thresholds, err := t.levels.GetAll()
	if err != nil {
		return nil, nil, err
	}
	oldLevel := profile.Level
	newLevel := progress.CurrentLevel(profile.XP, thresholds)
	if newLevel < oldLevel {
		// The ladder shrank; a level is never taken away.
		newLevel = oldLevel
	}
	if newLevel != oldLevel {
		if err := t.profiles.SetLevel(t.userID, newLevel); err != nil {
			return nil, nil, err
		}
		profile.Level = newLevel
	}

	t.touch(realtime.TableProfiles, realtime.OpUpdate)
	t.touch(realtime.TableDailyActivities, realtime.OpUpdate)

	return &models.XPResult{
		NewXP:     profile.XP,
		NewLevel:  newLevel,
		XPGained:  amount,
		LeveledUp: newLevel > oldLevel,
	}, profile, nil
}

func recordAward(action string, result *models.XPResult) {
	if result == nil {
		return
	}
	metrics.RecordXPAwarded(action, result.XPGained)
	if result.LeveledUp {
		metrics.RecordLevelUp()
	}
}

// InitDailyActivity moves the user onto today, extending or resetting the streak and
// granting the daily login bonus once per calendar day. A missing profile is created with displayName.
func (g *Gateway) InitDailyActivity(ctx context.Context, userID, displayName string) (*models.DailyInit, error) {
	var result models.DailyInit
	var award *models.XPResult

	err := g.run(ctx, "init_daily_activity", userID, func(t *txn) error {
		today := g.today()

		profile, err := t.profiles.Ensure(userID, displayName)
		if err != nil {
			return err
		}

		if profile.LastActiveDate == nil || !models.SameDay(*profile.LastActiveDate, today) {
			streak := 1
			if profile.LastActiveDate != nil && models.SameDay(*profile.LastActiveDate, today.AddDate(0, 0, -1)) {
				streak = profile.Streak + 1
			}
			longest := profile.LongestStreak
			if streak > longest {
				longest = streak
			}

			started, err := t.profiles.StartDay(userID, today, streak, longest)
			if err != nil {
				return err
			}
			if started {
				result.IsNewDay = true
				result.BonusXP = g.rules.DailyLoginBonus
				award, _, err = g.grant(t, g.rules.DailyLoginBonus, today, nil, repository.ActivityDelta{})
				if err != nil {
					return err
				}
			}
		}

		current, err := t.profiles.GetByID(userID)
		if err != nil {
			return err
		}
		activity, err := t.activities.GetByDate(userID, today)
		if err != nil {
			return err
		}
		result.Streak = current.Streak
		result.DailyXP = activity.XPEarned
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAward(ActionDailyLogin, award)
	return &result, nil
}

// AwardXP grants XP for a named action. customXP overrides the reward table when non-nil.
func (g *Gateway) AwardXP(ctx context.Context, userID, action string, customXP *int) (*models.XPResult, error) {
	amount, err := g.rules.reward(action, customXP)
	if err != nil {
		return nil, err
	}

	var result *models.XPResult
	err = g.run(ctx, "award_xp", userID, func(t *txn) error {
		var err error
		result, _, err = g.grant(t, amount, g.today(), nil, repository.ActivityDelta{})
		return err
	})
	if err != nil {
		return nil, err
	}

	recordAward(action, result)
	return result, nil
}

// RecordProblemSolved grants the difficulty's XP and counts the solved problem.
func (g *Gateway) RecordProblemSolved(ctx context.Context, userID, difficulty string) (*models.ProblemSolvedResult, error) {
	action, err := problemAction(difficulty)
	if err != nil {
		return nil, err
	}
	amount, err := g.rules.reward(action, nil)
	if err != nil {
		return nil, err
	}

	var result models.ProblemSolvedResult
	err = g.run(ctx, "record_problem_solved", userID, func(t *txn) error {
		award, profile, err := g.grant(t, amount, g.today(),
			map[string]int{"problems_solved": 1},
			repository.ActivityDelta{ProblemsSolved: 1},
		)
		if err != nil {
			return err
		}
		result.XPResult = *award
		result.NewProblemsSolved = profile.ProblemsSolved
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAward(action, &result.XPResult)
	return &result, nil
}

// RecordAssessmentCompleted stores the attempt and grants pass or fail XP.
func (g *Gateway) RecordAssessmentCompleted(ctx context.Context, userID string, sub models.AssessmentSubmission) (*models.XPResult, error) {
	if sub.AssessmentID == "" {
		return nil, fmt.Errorf("%w: assessment id is required", ErrInvalidAssessment)
	}
	if sub.Score < 0 || sub.TimeTakenSeconds < 0 {
		return nil, fmt.Errorf("%w: score and time taken must not be negative", ErrInvalidAssessment)
	}

	action := assessmentAction(sub.Passed)
	amount, err := g.rules.reward(action, nil)
	if err != nil {
		return nil, err
	}

	var result *models.XPResult
	err = g.run(ctx, "record_assessment_completed", userID, func(t *txn) error {
		attempt := &models.AssessmentAttempt{
			UserID:           userID,
			AssessmentID:     sub.AssessmentID,
			Score:            sub.Score,
			Passed:           sub.Passed,
			TimeTakenSeconds: sub.TimeTakenSeconds,
		}
		if err := t.db.Create(attempt).Error; err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		t.touch(realtime.TableAssessmentAttempts, realtime.OpInsert)

		counters := map[string]int{}
		if sub.Passed {
			counters["assessments_passed"] = 1
		}

		var err error
		result, _, err = g.grant(t, amount, g.today(), counters, repository.ActivityDelta{AssessmentsCompleted: 1})
		return err
	})
	if err != nil {
		return nil, err
	}

	recordAward(action, result)
	return result, nil
}

// RecordApplicationUpdate grants XP for an application status transition. A transition that
// earns nothing and sends nothing leaves the database untouched.
func (g *Gateway) RecordApplicationUpdate(ctx context.Context, userID, oldStatus, newStatus string) (*models.ApplicationXPResult, error) {
	move, err := classifyApplicationMove(oldStatus, newStatus)
	if err != nil {
		return nil, err
	}

	amount := 0
	if move.action != "" {
		if amount, err = g.rules.reward(move.action, nil); err != nil {
			return nil, err
		}
	}

	var result models.ApplicationXPResult
	err = g.run(ctx, "record_application_update", userID, func(t *txn) error {
		if move.action == "" && !move.sent {
			profile, err := t.profiles.GetByID(userID)
			if err != nil {
				return err
			}
			result.NewXP = profile.XP
			return nil
		}

		counters := map[string]int{}
		delta := repository.ActivityDelta{}
		if move.sent {
			counters["applications_sent"] = 1
			delta.ApplicationsSent = 1
		}

		award, _, err := g.grant(t, amount, g.today(), counters, delta)
		if err != nil {
			return err
		}
		result.NewXP = award.NewXP
		result.XPGained = award.XPGained
		return nil
	})
	if err != nil {
		return nil, err
	}

	if move.action != "" {
		metrics.RecordXPAwarded(move.action, result.XPGained)
	}
	return &result, nil
}
