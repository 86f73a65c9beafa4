package widgets

import (
	"math"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// FunnelStage is one pipeline stage of the application funnel.
type FunnelStage struct {
	Status string `json:"status"`
	// Count is the number of applications currently at this stage.
	Count int `json:"count"`
	// Reached is the number of applications that got at least this far.
	Reached int `json:"reached"`
	// Conversion is Reached as a percentage of the previous stage's Reached.
	Conversion float64 `json:"conversion"`
}

// Funnel is the application pipeline summary.
type Funnel struct {
	Stages   []FunnelStage `json:"stages"`
	Rejected int           `json:"rejected"`
	Total    int           `json:"total"`
}

// BuildFunnel counts applications per stage. A rejected application counts as having reached
// the applied stage when it was ever applied, otherwise only the wishlist.
func BuildFunnel(applications []models.Application) Funnel {
	stages := len(models.ApplicationPipeline)
	counts := make([]int, stages)
	furthest := make([]int, stages)

	f := Funnel{Total: len(applications)}
	for _, a := range applications {
		if a.Status == models.ApplicationStatusRejected {
			f.Rejected++
			idx := 0
			if a.AppliedAt != nil {
				idx = models.StageIndex(models.ApplicationStatusApplied)
			}
			furthest[idx]++
			continue
		}
		idx := models.StageIndex(a.Status)
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
		furthest[idx]++
	}

	f.Stages = make([]FunnelStage, stages)
	reached := 0
	for i := stages - 1; i >= 0; i-- {
		reached += furthest[i]
		f.Stages[i] = FunnelStage{
			Status:  models.ApplicationPipeline[i],
			Count:   counts[i],
			Reached: reached,
		}
	}
	for i := range f.Stages {
		if i == 0 {
			if f.Stages[0].Reached > 0 {
				f.Stages[0].Conversion = 100
			}
			continue
		}
		f.Stages[i].Conversion = percent(f.Stages[i].Reached, f.Stages[i-1].Reached)
	}

	return f
}

// percent returns part/whole as a percentage rounded to one decimal, 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(whole)) / 10
}
