package complexity

import (
	"fmt"
	"sort"
	"strings"
)

// Scorer computes complexity scores from a task description and context.
// It is pure: the same inputs always produce the same Score, and it never
// fails — absent or malformed context fields contribute nothing.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer with the given configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score rates the task on all five dimensions and returns the weighted total.
func (s *Scorer) Score(description string, taskCtx map[string]any) Score {
	desc := strings.ToLower(description)

	dims := make(map[Dimension]float64, len(Dimensions))
	for _, d := range Dimensions {
		dims[d] = clamp01(s.keywordScore(d, desc) + s.contextScore(d, taskCtx))
	}

	saturated := dims[DimRisk] >= s.cfg.RiskSaturation
	if saturated {
		// A saturated risk dimension means destructive production work;
		// lift every dimension so the total clears the escalation bar.
		for _, d := range Dimensions {
			if dims[d] < dims[DimRisk] {
				dims[d] = dims[DimRisk]
			}
		}
	}

	var total float64
	for _, d := range Dimensions {
		total += dims[d] * s.cfg.Weights[d]
	}
	total = clamp01(total)

	return Score{
		Total:                 total,
		Dimensions:            dims,
		RequiresCollaboration: total > s.cfg.CollaborationThreshold,
		Reasoning:             s.reasoning(dims, saturated),
	}
}

// keywordScore counts indicator substrings present in the description.
func (s *Scorer) keywordScore(d Dimension, desc string) float64 {
	var score float64
	for _, indicator := range s.cfg.Indicators[d] {
		if strings.Contains(desc, indicator) {
			score += s.cfg.KeywordIncrement[d]
		}
	}
	if score > s.cfg.KeywordCap {
		score = s.cfg.KeywordCap
	}
	return score
}

// contextScore computes the contextual-signal contribution for one dimension.
func (s *Scorer) contextScore(d Dimension, taskCtx map[string]any) float64 {
	switch d {
	case DimScope:
		return capped(float64(ctxInt(taskCtx, "num_subtasks"))*s.cfg.SubtaskIncrement, s.cfg.SubtaskCap)
	case DimUncertainty:
		var score float64
		if ctxBool(taskCtx, "unclear_requirements") {
			score += s.cfg.UnclearBoost
		}
		if ctxBool(taskCtx, "novel_task") {
			score += s.cfg.NovelBoost
		}
		return score
	case DimInterdependence:
		return capped(float64(ctxInt(taskCtx, "num_dependencies"))*s.cfg.DependencyIncrement, s.cfg.DependencyCap)
	case DimExpertise:
		return capped(float64(ctxLen(taskCtx, "required_skills"))*s.cfg.SkillIncrement, s.cfg.SkillCap)
	case DimRisk:
		var score float64
		if ctxBool(taskCtx, "affects_production") {
			score += s.cfg.ProductionBoost
		}
		if ctxBool(taskCtx, "requires_approval") {
			score += s.cfg.ApprovalBoost
		}
		return score
	}
	return 0
}

// reasoning names the two highest-scoring dimensions above the reporting floor.
func (s *Scorer) reasoning(dims map[Dimension]float64, saturated bool) string {
	type entry struct {
		dim   Dimension
		score float64
	}

	var elevated []entry
	for _, d := range Dimensions {
		if dims[d] >= s.cfg.ReportingFloor {
			elevated = append(elevated, entry{d, dims[d]})
		}
	}
	// Sort by score descending; ties resolve in canonical dimension order,
	// which the initial iteration over Dimensions already established.
	sort.SliceStable(elevated, func(i, j int) bool {
		return elevated[i].score > elevated[j].score
	})

	var b strings.Builder
	switch {
	case len(elevated) == 0:
		b.WriteString("low complexity across all dimensions; suitable for a single agent")
	case len(elevated) == 1:
		fmt.Fprintf(&b, "complexity driven by %s (%.2f)", elevated[0].dim, elevated[0].score)
	default:
		fmt.Fprintf(&b, "complexity driven by %s (%.2f) and %s (%.2f)",
			elevated[0].dim, elevated[0].score, elevated[1].dim, elevated[1].score)
	}
	if saturated {
		b.WriteString("; risk saturated: destructive or production-impacting change")
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func capped(v, cap float64) float64 {
	if v > cap {
		return cap
	}
	return v
}

// ctxInt reads an integer context field, tolerating JSON float64 decoding.
// Malformed or negative values contribute nothing.
func ctxInt(taskCtx map[string]any, key string) int {
	switch v := taskCtx[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return 0
}

func ctxBool(taskCtx map[string]any, key string) bool {
	b, _ := taskCtx[key].(bool)
	return b
}

// ctxLen reads the length of a list context field ([]string or decoded []any).
func ctxLen(taskCtx map[string]any, key string) int {
	switch v := taskCtx[key].(type) {
	case []string:
		return len(v)
	case []any:
		return len(v)
	}
	return 0
}
