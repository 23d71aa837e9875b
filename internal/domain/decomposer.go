package domain

// Phase template sequences per severity tier. Policy data, not computed:
// the same tier always yields the same sequence in the same order.
var phaseTemplatesByTier = map[SeverityTier][]PhaseTemplate{
	TierLow: {
		{Name: "Preparation", Objective: "Set a quit date and remove smoking cues at home and work", Duration: "1 week", RecommendGoal: "Cut daily cigarettes by half before the quit date"},
		{Name: "Action", Objective: "Stop smoking completely and practice substitute routines", Duration: "2 weeks", RecommendGoal: "Zero cigarettes for 14 consecutive days"},
		{Name: "Maintenance", Objective: "Hold the new routine and handle residual cravings", Duration: "1 week", RecommendGoal: "Log every craving and the coping action taken"},
	},
	TierMedium: {
		{Name: "Preparation", Objective: "Set a quit date, map triggers, and brief your support circle", Duration: "1 week", RecommendGoal: "Write down your three strongest triggers with a counter-plan each"},
		{Name: "Reduction", Objective: "Taper intake on a fixed schedule", Duration: "2 weeks", RecommendGoal: "Reduce to at most 3 cigarettes per day by the end of week two"},
		{Name: "Action", Objective: "Stop smoking completely", Duration: "2 weeks", RecommendGoal: "Zero cigarettes for 14 consecutive days"},
		{Name: "Maintenance", Objective: "Consolidate habits and prevent relapse", Duration: "1 week", RecommendGoal: "Complete one smoke-free weekend including a social event"},
	},
	TierHigh: {
		{Name: "Preparation", Objective: "Set a quit date, start nicotine replacement per instructions, brief your support circle", Duration: "1 week", RecommendGoal: "Begin NRT and record baseline daily intake"},
		{Name: "Early reduction", Objective: "Taper intake while adjusting replacement dosage", Duration: "2 weeks", RecommendGoal: "Cut daily intake by a third each week"},
		{Name: "Deep reduction", Objective: "Approach zero with structured substitute activities", Duration: "2 weeks", RecommendGoal: "At most 2 cigarettes per day, none before noon"},
		{Name: "Action", Objective: "Stop smoking completely", Duration: "2 weeks", RecommendGoal: "Zero cigarettes for 14 consecutive days"},
		{Name: "Maintenance", Objective: "Hold abstinence through high-risk situations", Duration: "1 week", RecommendGoal: "Navigate two identified trigger situations without smoking"},
	},
	TierSevere: {
		{Name: "Preparation", Objective: "Medical consult, start prescribed cessation support, set a quit date", Duration: "2 weeks", RecommendGoal: "Complete the medical intake and start medication as instructed"},
		{Name: "Stabilization", Objective: "Establish a predictable smoking schedule to break chain-smoking", Duration: "2 weeks", RecommendGoal: "No smoking outside three fixed daily windows"},
		{Name: "Early reduction", Objective: "Taper within the fixed windows", Duration: "2 weeks", RecommendGoal: "Halve the amount smoked in each window"},
		{Name: "Deep reduction", Objective: "Collapse windows and approach zero", Duration: "2 weeks", RecommendGoal: "At most 1 cigarette per day"},
		{Name: "Action", Objective: "Stop smoking completely with daily coach check-ins", Duration: "2 weeks", RecommendGoal: "Zero cigarettes for 14 consecutive days"},
		{Name: "Maintenance", Objective: "Relapse-prevention drills and medication tapering per medical advice", Duration: "2 weeks", RecommendGoal: "Rehearse your relapse-prevention plan for every listed trigger"},
	},
}

// Decompose returns the ordered phase template sequence for a severity tier.
// The result is a copy; callers may modify it freely. Unknown tiers fall back
// to the MEDIUM sequence rather than failing, since a plan must always be
// decomposable at activation time.
func Decompose(tier SeverityTier) []PhaseTemplate {
	templates, ok := phaseTemplatesByTier[tier]
	if !ok {
		templates = phaseTemplatesByTier[TierMedium]
	}
	out := make([]PhaseTemplate, len(templates))
	copy(out, templates)
	return out
}

// AttachGoals builds the concrete phases from templates, merging per-phase
// goal overrides (keyed by 0-based template index). Phases without an
// override default to a single-element goal list containing the recommended
// goal. Numbering starts at 1 in template order and is immutable afterwards;
// the caller stamps PlanID and timestamps when persisting.
func AttachGoals(templates []PhaseTemplate, overrides map[int][]string) []QuitPhase {
	phases := make([]QuitPhase, 0, len(templates))
	for i, t := range templates {
		goals := overrides[i]
		if len(goals) == 0 {
			goals = []string{t.RecommendGoal}
		}
		phases = append(phases, QuitPhase{
			PhaseOrder:    i + 1,
			Name:          t.Name,
			Objective:     t.Objective,
			Duration:      t.Duration,
			RecommendGoal: t.RecommendGoal,
			Goals:         goals,
		})
	}
	return phases
}
