// Package task holds the pure task-domain calculations, chiefly the
// fairness-weighted balance between the two household members.
package task

import (
	"github.com/plothq/plot/internal/model"
)

// Policy is the fairness configuration: how much each effort level weighs and
// the share of weighted work past which the split counts as imbalanced.
type Policy struct {
	EffortWeights    map[model.EffortLevel]float64
	BalanceThreshold float64
}

// DefaultPolicy weighs quick=1, medium=2, involved=4 and flags imbalance when
// either side exceeds 60% of the weighted completed work.
func DefaultPolicy() Policy {
	return Policy{
		EffortWeights: map[model.EffortLevel]float64{
			model.EffortQuick:    1,
			model.EffortMedium:   2,
			model.EffortInvolved: 4,
		},
		BalanceThreshold: 0.6,
	}
}

// FairnessResult describes how completed task effort is distributed.
type FairnessResult struct {
	MyPercentage         float64 `json:"my_percentage"`
	PartnerPercentage    float64 `json:"partner_percentage"`
	MyCount              int     `json:"my_count"`
	PartnerCount         int     `json:"partner_count"`
	MyWeightedScore      float64 `json:"my_weighted_score"`
	PartnerWeightedScore float64 `json:"partner_weighted_score"`
	IsBalanced           bool    `json:"is_balanced"`
}

// ComputeFairness weighs completed tasks per side and reports the balance.
// Only tasks with status done, a completion timestamp, and a single assignee
// count toward the ratio; "both" and unassigned tasks are excluded. periodDays
// is part of the contract for future period scoping and does not affect the
// weighting.
func ComputeFairness(tasks []model.Task, periodDays int, policy Policy) FairnessResult {
	var res FairnessResult

	for _, tk := range tasks {
		if tk.Status != model.TaskDone || tk.CompletedAt == nil {
			continue
		}
		weight := policy.EffortWeights[tk.EffortLevel]
		switch tk.AssignedTo {
		case model.AssigneeMe:
			res.MyWeightedScore += weight
			res.MyCount++
		case model.AssigneePartner:
			res.PartnerWeightedScore += weight
			res.PartnerCount++
		}
	}

	total := res.MyWeightedScore + res.PartnerWeightedScore
	if total > 0 {
		res.MyPercentage = res.MyWeightedScore / total
		res.PartnerPercentage = res.PartnerWeightedScore / total
	}

	res.IsBalanced = total == 0 ||
		(res.MyPercentage <= policy.BalanceThreshold && res.PartnerPercentage <= policy.BalanceThreshold)

	return res
}
