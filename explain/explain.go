package explain

import (
	"fmt"
	"sort"
	"time"

	"github.com/amand4priscil4/DetectaBB-Backend-3/boleto"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Explainer merges the format validator's result and the classifier's
// prediction into a single ranked, dual-audience verdict. It is stateless
// apart from injected configuration, so one instance is safe to share across
// goroutines.
type Explainer struct {
	logger   *logrus.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewExplainer(logger *logrus.Logger) *Explainer {
	return &Explainer{
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Synthesize always returns a verdict. Malformed collaborator output (missing
// inputs, out-of-range fields, or anything that panics mid-synthesis)
// degrades to a minimal fallback verdict instead of surfacing an error: this
// step sits on the critical path of every analysis and must produce an answer.
func (e *Explainer) Synthesize(validation *boleto.ValidationResult, prediction *boleto.ClassifierResult) (verdict Verdict) {
	isFraud := false
	if validation != nil && !validation.Valid {
		isFraud = true
	}
	if prediction != nil && prediction.IsFraud {
		isFraud = true
	}

	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.WithFields(logrus.Fields{
					"module":  "explain",
					"context": "Synthesize",
				}).Error(fmt.Sprintf("synthesis panicked, returning fallback verdict: %v", r))
			}
			verdict = e.fallback(isFraud)
		}
	}()

	if validation == nil || prediction == nil {
		return e.fallback(isFraud)
	}
	if err := e.validate.Struct(prediction); err != nil {
		if e.logger != nil {
			e.logger.WithFields(logrus.Fields{
				"module":  "explain",
				"context": "Synthesize",
			}).Warn("classifier result failed shape check: " + err.Error())
		}
		return e.fallback(isFraud)
	}

	signals := collectSignals(validation, prediction)
	rankSignals(signals)

	level := riskLevelFor(isFraud, prediction.Score)

	return Verdict{
		IsFraud:        isFraud,
		RiskLevel:      level,
		Signals:        signals,
		Simple:         simpleView(isFraud, signals, prediction.Score),
		Advanced:       advancedView(validation, prediction),
		Recommendation: recommendationFor(level),
		GeneratedAt:    e.now().UTC(),
	}
}

// collectSignals turns validator errors and the ML detection into signals.
// Validator errors come first, each critical with impact 1.0; a fraud
// prediction contributes exactly one signal whose severity tracks confidence.
func collectSignals(validation *boleto.ValidationResult, prediction *boleto.ClassifierResult) []Signal {
	signals := make([]Signal, 0, len(validation.Errors)+1)

	for _, raw := range validation.Errors {
		t := translateError(raw)
		cat := categoryFor(t.Category)
		signals = append(signals, Signal{
			Severity:      SeverityCritical,
			Category:      t.Category,
			CategoryLabel: cat.Label,
			Icon:          cat.Icon,
			Color:         cat.Color,
			Title:         t.Lay,
			Detail:        t.Tech,
			Impact:        1.0,
			Source:        SourceValidator,
		})
	}

	if prediction.IsFraud {
		severity := SeverityLow
		switch {
		case prediction.Confidence >= 0.8:
			severity = SeverityHigh
		case prediction.Confidence >= 0.6:
			severity = SeverityMedium
		}
		cat := categoryFor("padrao_ml")
		signals = append(signals, Signal{
			Severity:      severity,
			Category:      "padrao_ml",
			CategoryLabel: cat.Label,
			Icon:          cat.Icon,
			Color:         cat.Color,
			Title:         "Padrão suspeito identificado",
			Detail: fmt.Sprintf(
				"Modelo de Machine Learning detectou padrão com %.1f%% de confiança baseado em %d características analisadas",
				prediction.Confidence*100, len(prediction.FeaturesUsed)),
			Impact: prediction.Confidence,
			Source: SourceModel,
		})
	}

	return signals
}

// rankSignals orders descending by (severity rank, impact). The sort must be
// stable: equal keys keep collection order, validator signals before the ML
// signal.
func rankSignals(signals []Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		ri, rj := severityRank[signals[i].Severity], severityRank[signals[j].Severity]
		if ri != rj {
			return ri > rj
		}
		return signals[i].Impact > signals[j].Impact
	})
}

func riskLevelFor(isFraud bool, score float64) RiskLevel {
	if !isFraud {
		return RiskLow
	}
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

func confidenceLabel(score float64) string {
	switch {
	case score >= 80:
		return "Very High"
	case score >= 60:
		return "High"
	case score >= 40:
		return "Medium"
	default:
		return "Low"
	}
}

func simpleView(isFraud bool, signals []Signal, score float64) SimpleView {
	if isFraud {
		principal := "Inconsistências detectadas"
		if len(signals) > 0 {
			principal = signals[0].Title
		}
		return SimpleView{
			Status:            "FRAUDULENT",
			Confidence:        confidenceLabel(score),
			Summary:           "Este boleto foi identificado como falso",
			PrincipalReason:   principal,
			RecommendedAction: "NÃO PAGUE este boleto",
			Emoji:             "🚨",
		}
	}
	return SimpleView{
		Status:            "VALID",
		Confidence:        confidenceLabel(score),
		Summary:           "Este boleto aparenta ser autêntico",
		PrincipalReason:   "Todas as validações foram aprovadas",
		RecommendedAction: "Você pode pagar, mas sempre confira os dados",
		Emoji:             "✅",
	}
}

func advancedView(validation *boleto.ValidationResult, prediction *boleto.ClassifierResult) *AdvancedView {
	methods := []string{}
	if !validation.Valid {
		methods = append(methods, MethodRuleValidation)
	}
	if prediction.IsFraud {
		methods = append(methods, MethodMLModel)
	}

	return &AdvancedView{
		Validation: ValidationBlock{
			Passed:     validation.Valid,
			ErrorCount: len(validation.Errors),
			Details:    validation.Details,
		},
		Model: ModelBlock{
			PredictedClass: prediction.PredictedClass,
			Probabilities:  prediction.Probabilities,
			FeaturesUsed:   len(prediction.FeaturesUsed),
		},
		FraudScore:       prediction.Score,
		ModelConfidence:  prediction.Confidence,
		TopFeatures:      topFeatures(prediction),
		DetectionMethods: methods,
	}
}

// topFeatures lists up to five model features with translated labels.
// Ordered by classifier-supplied importance when present, then by name so the
// output stays deterministic across map iterations.
func topFeatures(prediction *boleto.ClassifierResult) []FeatureImpact {
	names := make([]string, 0, len(prediction.FeaturesUsed))
	for name := range prediction.FeaturesUsed {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ii := prediction.FeatureImportance[names[i]]
		ji := prediction.FeatureImportance[names[j]]
		if ii != ji {
			return ii > ji
		}
		return names[i] < names[j]
	})
	if len(names) > 5 {
		names = names[:5]
	}

	features := make([]FeatureImpact, 0, len(names))
	for _, name := range names {
		f := FeatureImpact{
			Feature: name,
			Label:   featureLabel(name),
			Value:   prediction.FeaturesUsed[name],
		}
		if imp, ok := prediction.FeatureImportance[name]; ok {
			v := imp
			f.Importance = &v
		}
		features = append(features, f)
	}
	return features
}

func (e *Explainer) fallback(isFraud bool) Verdict {
	status := "VALID"
	if isFraud {
		status = "FRAUDULENT"
	}
	return Verdict{
		IsFraud:   isFraud,
		RiskLevel: RiskUnknown,
		Signals:   []Signal{},
		Simple: SimpleView{
			Status:            status,
			Summary:           "Análise concluída",
			RecommendedAction: "Verifique os detalhes",
		},
		Recommendation: fallbackRecommendation(),
		GeneratedAt:    e.now().UTC(),
	}
}
