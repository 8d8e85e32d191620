package evaluation

// precision is the fraction of retrieved chunk IDs that are in the
// relevant set — 1.0 on an empty retrieval (nothing retrieved, nothing
// wrongly retrieved) so a hard failure doesn't register as a 0 that
// skews the mean the same way a confidently-wrong retrieval would.
func precision(retrieved, relevant []string) float64 {
	if len(retrieved) == 0 {
		return 1.0
	}
	relSet := toSet(relevant)
	var hits int
	for _, id := range retrieved {
		if _, ok := relSet[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(retrieved))
}

// recall is the fraction of the relevant set that was retrieved.
func recall(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 1.0
	}
	retSet := toSet(retrieved)
	var hits int
	for _, id := range relevant {
		if _, ok := retSet[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

// reciprocalRank is 1/position of the first retrieved ID that's in the
// relevant set (1-indexed), 0 if none of them are — the same
// first-relevant-hit rule as the teacher's MRRMetric.Compute, applied
// to one query at a time so the harness can average it itself.
func reciprocalRank(retrieved, relevant []string) float64 {
	relSet := toSet(relevant)
	for i, id := range retrieved {
		if _, ok := relSet[id]; ok {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
