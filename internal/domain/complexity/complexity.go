// Package complexity provides the multi-dimensional task complexity scorer
// used by the decision engine to route tasks between single-agent execution,
// task forces, and human escalation.
package complexity

// Dimension identifies one axis of task complexity.
type Dimension string

const (
	DimScope           Dimension = "scope"
	DimUncertainty     Dimension = "uncertainty"
	DimInterdependence Dimension = "interdependence"
	DimExpertise       Dimension = "expertise"
	DimRisk            Dimension = "risk"
)

// Dimensions lists all scoring dimensions in canonical order.
// The order is also the tie-break order when generating reasoning.
var Dimensions = []Dimension{DimScope, DimUncertainty, DimInterdependence, DimExpertise, DimRisk}

// Score is the result of scoring a task description. It is ephemeral and
// never persisted; the decision engine keeps only the total and reasoning.
type Score struct {
	Total                 float64               `json:"total"`
	Dimensions            map[Dimension]float64 `json:"dimensions"`
	RequiresCollaboration bool                  `json:"requires_collaboration"`
	Reasoning             string                `json:"reasoning"`
}

// Config holds all scorer tunables: dimension weights, indicator keyword
// lists, increments, caps, and thresholds. Indicator lists are data, not
// logic, so tests and deployments can tune them without code changes.
type Config struct {
	// Weights per dimension; must sum to 1.0.
	Weights map[Dimension]float64 `yaml:"weights"`

	// Indicators are lowercase substrings matched against the task
	// description. Each matching indicator contributes KeywordIncrement
	// for its dimension, up to KeywordCap.
	Indicators       map[Dimension][]string `yaml:"indicators"`
	KeywordIncrement map[Dimension]float64  `yaml:"keyword_increment"`
	KeywordCap       float64                `yaml:"keyword_cap"`

	// Contextual signal increments and caps.
	SubtaskIncrement    float64 `yaml:"subtask_increment"`    // scope: per subtask
	SubtaskCap          float64 `yaml:"subtask_cap"`          // scope: max contribution
	DependencyIncrement float64 `yaml:"dependency_increment"` // interdependence: per dependency
	DependencyCap       float64 `yaml:"dependency_cap"`       // interdependence: max contribution
	SkillIncrement      float64 `yaml:"skill_increment"`      // expertise: per required skill
	SkillCap            float64 `yaml:"skill_cap"`            // expertise: max contribution
	UnclearBoost        float64 `yaml:"unclear_boost"`        // uncertainty: unclear_requirements flag
	NovelBoost          float64 `yaml:"novel_boost"`          // uncertainty: novel_task flag
	ProductionBoost     float64 `yaml:"production_boost"`     // risk: affects_production flag
	ApprovalBoost       float64 `yaml:"approval_boost"`       // risk: requires_approval flag

	// CollaborationThreshold is the total score above which a task requires
	// multi-agent collaboration.
	CollaborationThreshold float64 `yaml:"collaboration_threshold"`

	// ReportingFloor is the minimum dimension sub-score included in the
	// generated reasoning.
	ReportingFloor float64 `yaml:"reporting_floor"`

	// RiskSaturation is the clamped risk sub-score at which the scorer
	// lifts every dimension to the risk level. Destructive production work
	// must never score below the escalation threshold, and with a risk
	// weight of 0.10 the raw weighted sum cannot get there on its own.
	RiskSaturation float64 `yaml:"risk_saturation"`
}

// DefaultConfig returns the scorer configuration used in production.
func DefaultConfig() Config {
	return Config{
		Weights: map[Dimension]float64{
			DimScope:           0.30,
			DimUncertainty:     0.15,
			DimInterdependence: 0.15,
			DimExpertise:       0.30,
			DimRisk:            0.10,
		},
		Indicators: map[Dimension][]string{
			DimScope: {
				"entire", "all ", "across", "multiple", "system-wide",
				"overhaul", "migrate", "rewrite", "refactor", "end-to-end",
				"service",
			},
			DimUncertainty: {
				"investigate", "explore", "unclear", "unknown", "research",
				"figure out", "diagnose", "might", "possibly", "experiment",
			},
			DimInterdependence: {
				"coordinate", "coordinating", "coordination", "integrate",
				"integration", "depends on", "dependencies", "cross-team",
				"teams", "downstream", "upstream",
			},
			DimExpertise: {
				"security", "database", "api", "performance", "architecture",
				"payment", "infrastructure", "cryptography", "compliance",
				"concurrency", "kubernetes",
			},
			DimRisk: {
				"production", "delete", "permanently", "irreversible",
				"destructive", "outage", "without approval", "customer records",
				"customer data", "drop ",
			},
		},
		KeywordIncrement: map[Dimension]float64{
			DimScope:           0.25,
			DimUncertainty:     0.35,
			DimInterdependence: 0.30,
			DimExpertise:       0.30,
			DimRisk:            0.40,
		},
		KeywordCap:             1.0,
		SubtaskIncrement:       0.15,
		SubtaskCap:             0.60,
		DependencyIncrement:    0.15,
		DependencyCap:          0.60,
		SkillIncrement:         0.20,
		SkillCap:               0.60,
		UnclearBoost:           0.40,
		NovelBoost:             0.30,
		ProductionBoost:        0.35,
		ApprovalBoost:          0.35,
		CollaborationThreshold: 0.55,
		ReportingFloor:         0.30,
		RiskSaturation:         1.0,
	}
}

// WeightSum returns the sum of all dimension weights.
func (c Config) WeightSum() float64 {
	var sum float64
	for _, d := range Dimensions {
		sum += c.Weights[d]
	}
	return sum
}
