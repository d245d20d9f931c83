package catalog

// CalculateStats reduces a variable set into summary counters.
func CalculateStats(vars []Variable) Stats {
	stats := Stats{TotalVariables: len(vars)}
	ruleblocks := make(map[string]struct{})

	for i := range vars {
		v := &vars[i]
		switch v.StatementType {
		case Functional:
			stats.FunctionalCount++
		case Conditional:
			stats.ConditionalCount++
		}
		if v.Label != "" {
			stats.WithMetadataCount++
		} else {
			stats.WithoutMetadataCount++
		}
		if v.ReferencedInTemplates != "" {
			stats.WithTemplateReferencesCount++
		}
		ruleblocks[v.Ruleblock] = struct{}{}
	}

	stats.TotalRuleblocks = len(ruleblocks)
	return stats
}
