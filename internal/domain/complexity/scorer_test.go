package complexity

import (
	"math"
	"reflect"
	"testing"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	cfg := DefaultConfig()
	if diff := math.Abs(cfg.WeightSum() - 1.0); diff > 1e-9 {
		t.Fatalf("weights sum to %v, want 1.0", cfg.WeightSum())
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(DefaultConfig())
	desc := "Investigate and fix the payment service, requires coordinating database, API, and security teams"
	ctx := map[string]any{"num_dependencies": 3}

	first := s.Score(desc, ctx)
	for range 10 {
		got := s.Score(desc, ctx)
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("score not deterministic:\nfirst: %+v\ngot:   %+v", first, got)
		}
	}
}

func TestScoreTotalInRange(t *testing.T) {
	s := NewScorer(DefaultConfig())
	descriptions := []string{
		"",
		"Rename a local variable for clarity",
		"Permanently delete all production customer records without approval",
		"Investigate unknown performance issues across multiple services, coordinate teams, migrate the entire database",
	}
	for _, desc := range descriptions {
		got := s.Score(desc, map[string]any{
			"num_subtasks":       100,
			"num_dependencies":   100,
			"required_skills":    []string{"a", "b", "c", "d", "e", "f"},
			"affects_production": true,
			"requires_approval":  true,
		})
		if got.Total < 0 || got.Total > 1 {
			t.Errorf("Score(%q).Total = %v, want in [0,1]", desc, got.Total)
		}
		for dim, sub := range got.Dimensions {
			if sub < 0 || sub > 1 {
				t.Errorf("Score(%q).Dimensions[%s] = %v, want in [0,1]", desc, dim, sub)
			}
		}
	}
}

func TestScoreTotalIsWeightedSum(t *testing.T) {
	cfg := DefaultConfig()
	s := NewScorer(cfg)
	got := s.Score("Investigate and diagnose the database outage, coordinate teams", map[string]any{"num_dependencies": 2})

	var want float64
	for _, d := range Dimensions {
		want += got.Dimensions[d] * cfg.Weights[d]
	}
	if math.Abs(got.Total-want) > 1e-9 {
		t.Fatalf("Total = %v, want weighted sum %v", got.Total, want)
	}
}

func TestScoreComplexTaskElevatesExpertiseAndInterdependence(t *testing.T) {
	s := NewScorer(DefaultConfig())
	got := s.Score(
		"Investigate and fix the payment service, requires coordinating database, API, and security teams",
		map[string]any{"num_dependencies": 3},
	)

	if got.Dimensions[DimExpertise] < 0.8 {
		t.Errorf("expertise = %v, want elevated", got.Dimensions[DimExpertise])
	}
	if got.Dimensions[DimInterdependence] < 0.8 {
		t.Errorf("interdependence = %v, want elevated", got.Dimensions[DimInterdependence])
	}
	if got.Total <= 0.55 || got.Total >= 0.90 {
		t.Errorf("Total = %v, want in (0.55, 0.90)", got.Total)
	}
	if !got.RequiresCollaboration {
		t.Error("expected RequiresCollaboration = true")
	}
}

func TestScoreTrivialTaskNearZero(t *testing.T) {
	s := NewScorer(DefaultConfig())
	got := s.Score("Rename a local variable for clarity", map[string]any{})

	for dim, sub := range got.Dimensions {
		if sub > 0.1 {
			t.Errorf("dimension %s = %v, want near 0", dim, sub)
		}
	}
	if got.RequiresCollaboration {
		t.Error("expected RequiresCollaboration = false")
	}
}

func TestScoreRiskSaturationLiftsTotal(t *testing.T) {
	s := NewScorer(DefaultConfig())
	got := s.Score(
		"Permanently delete all production customer records without approval",
		map[string]any{"affects_production": true, "requires_approval": true},
	)

	if got.Dimensions[DimRisk] < 1.0 {
		t.Errorf("risk = %v, want saturated at 1.0", got.Dimensions[DimRisk])
	}
	if got.Total < 0.90 {
		t.Errorf("Total = %v, want >= 0.90", got.Total)
	}
}

func TestScoreMalformedContextIsNeutral(t *testing.T) {
	s := NewScorer(DefaultConfig())
	desc := "Refactor the module"

	clean := s.Score(desc, nil)
	dirty := s.Score(desc, map[string]any{
		"num_subtasks":       "three",
		"num_dependencies":   -5,
		"required_skills":    42,
		"affects_production": "yes",
	})

	if !reflect.DeepEqual(clean, dirty) {
		t.Fatalf("malformed context changed the score:\nclean: %+v\ndirty: %+v", clean, dirty)
	}
}

func TestScoreContextSignals(t *testing.T) {
	s := NewScorer(DefaultConfig())

	base := s.Score("do the thing", nil)
	withCtx := s.Score("do the thing", map[string]any{
		"num_subtasks":         float64(2), // JSON numbers decode as float64
		"num_dependencies":     2,
		"required_skills":      []any{"go", "sql"},
		"unclear_requirements": true,
	})

	if withCtx.Dimensions[DimScope] <= base.Dimensions[DimScope] {
		t.Error("num_subtasks did not raise scope")
	}
	if withCtx.Dimensions[DimInterdependence] <= base.Dimensions[DimInterdependence] {
		t.Error("num_dependencies did not raise interdependence")
	}
	if withCtx.Dimensions[DimExpertise] <= base.Dimensions[DimExpertise] {
		t.Error("required_skills did not raise expertise")
	}
	if withCtx.Dimensions[DimUncertainty] <= base.Dimensions[DimUncertainty] {
		t.Error("unclear_requirements did not raise uncertainty")
	}
}

func TestReasoningNamesTopDimensions(t *testing.T) {
	s := NewScorer(DefaultConfig())
	got := s.Score(
		"Investigate and fix the payment service, requires coordinating database, API, and security teams",
		map[string]any{"num_dependencies": 3},
	)

	want := "complexity driven by interdependence (1.00) and expertise (1.00)"
	if got.Reasoning != want {
		t.Fatalf("Reasoning = %q, want %q", got.Reasoning, want)
	}
}

func TestReasoningLowComplexity(t *testing.T) {
	s := NewScorer(DefaultConfig())
	got := s.Score("Rename a local variable for clarity", nil)

	want := "low complexity across all dimensions; suitable for a single agent"
	if got.Reasoning != want {
		t.Fatalf("Reasoning = %q, want %q", got.Reasoning, want)
	}
}
