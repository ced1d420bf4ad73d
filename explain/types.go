package explain

import "time"

// Severity orders signals: critical > high > medium > low.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// RiskLevel is derived from the classifier score, not from the fraud flag:
// a fraudulent slip with a score under 40 still reports LOW.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

// Signal is one detected reason for (or against) fraud. Title reads for lay
// users, Detail for technical ones.
type Signal struct {
	Severity      Severity `json:"severity"`
	Category      string   `json:"category"`
	CategoryLabel string   `json:"categoryLabel"`
	Icon          string   `json:"icon"`
	Color         string   `json:"color"`
	Title         string   `json:"title"`
	Detail        string   `json:"detail"`
	Impact        float64  `json:"impact"`
	Source        string   `json:"source"`
}

type SimpleView struct {
	Status            string `json:"status"`
	Confidence        string `json:"confidence"`
	Summary           string `json:"summary"`
	PrincipalReason   string `json:"principalReason"`
	RecommendedAction string `json:"recommendedAction"`
	Emoji             string `json:"emoji"`
}

type ValidationBlock struct {
	Passed     bool                   `json:"passed"`
	ErrorCount int                    `json:"errorCount"`
	Details    map[string]interface{} `json:"details"`
}

type ModelBlock struct {
	PredictedClass string             `json:"predictedClass"`
	Probabilities  map[string]float64 `json:"probabilities"`
	FeaturesUsed   int                `json:"featuresUsed"`
}

// FeatureImpact pairs a model feature with its human-readable label.
// Importance comes from the classifier when it supplies one; it is never
// synthesized here.
type FeatureImpact struct {
	Feature    string      `json:"feature"`
	Label      string      `json:"label"`
	Value      interface{} `json:"value"`
	Importance *float64    `json:"importance,omitempty"`
}

type AdvancedView struct {
	Validation       ValidationBlock `json:"validation"`
	Model            ModelBlock      `json:"model"`
	FraudScore       float64         `json:"fraudScore"`
	ModelConfidence  float64         `json:"modelConfidence"`
	TopFeatures      []FeatureImpact `json:"topFeatures"`
	DetectionMethods []string        `json:"detectionMethods"`
}

type Recommendation struct {
	RiskLevel RiskLevel `json:"riskLevel"`
	Emoji     string    `json:"emoji"`
	Color     string    `json:"color"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	NextSteps []string  `json:"nextSteps"`
}

// Verdict is the synthesized, ranked, dual-audience fraud explanation.
// Built fresh on every synthesis call and never mutated afterwards.
type Verdict struct {
	IsFraud        bool           `json:"isFraud"`
	RiskLevel      RiskLevel      `json:"riskLevel"`
	Signals        []Signal       `json:"signals"`
	Simple         SimpleView     `json:"simpleView"`
	Advanced       *AdvancedView  `json:"advancedView,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}
