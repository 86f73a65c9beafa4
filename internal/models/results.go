package models

// DailyInit is the result of the init_daily_activity procedure.
type DailyInit struct {
	Streak   int  `json:"streak"`
	DailyXP  int  `json:"daily_xp"`
	IsNewDay bool `json:"is_new_day"`
	BonusXP  int  `json:"bonus_xp"`
}

// XPResult is the result of the award_xp procedure.
type XPResult struct {
	NewXP     int  `json:"new_xp"`
	NewLevel  int  `json:"new_level"`
	XPGained  int  `json:"xp_gained"`
	LeveledUp bool `json:"leveled_up"`
}

// ProblemSolvedResult is award_xp plus the updated solved counter.
type ProblemSolvedResult struct {
	XPResult
	NewProblemsSolved int `json:"new_problems_solved"`
}

// ApplicationXPResult is the result of the record_application_update procedure.
type ApplicationXPResult struct {
	NewXP    int `json:"new_xp"`
	XPGained int `json:"xp_gained"`
}

// AchievementUnlock describes a newly unlocked achievement.
type AchievementUnlock struct {
	AchievementID   string `json:"achievement_id"`
	AchievementName string `json:"achievement_name"`
	XPReward        int    `json:"xp_reward"`
}

// AssessmentSubmission is the input of the record_assessment_completed procedure.
type AssessmentSubmission struct {
	AssessmentID     string `json:"assessment_id"`
	Score            int    `json:"score"`
	Passed           bool   `json:"passed"`
	TimeTakenSeconds int    `json:"time_taken"`
}

// UserStats is the summary read of a user's gamification state.
type UserStats struct {
	UserID               string `json:"user_id"`
	XP                   int    `json:"xp"`
	Level                int    `json:"level"`
	Streak               int    `json:"streak"`
	LongestStreak        int    `json:"longest_streak"`
	ProblemsSolved       int    `json:"problems_solved"`
	ApplicationsSent     int    `json:"applications_sent"`
	AssessmentsPassed    int    `json:"assessments_passed"`
	AchievementsUnlocked int    `json:"achievements_unlocked"`
}
