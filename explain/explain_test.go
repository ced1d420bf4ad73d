package explain_test

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/amand4priscil4/DetectaBB-Backend-3/boleto"
	"github.com/amand4priscil4/DetectaBB-Backend-3/explain"
)

func newExplainer() *explain.Explainer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return explain.NewExplainer(logger)
}

func cleanValidation() *boleto.ValidationResult {
	return &boleto.ValidationResult{
		Valid:   true,
		Errors:  []string{},
		Details: map[string]interface{}{"codigo_barras": "ok"},
	}
}

func cleanPrediction() *boleto.ClassifierResult {
	return &boleto.ClassifierResult{
		IsFraud:        false,
		Confidence:     0.97,
		Score:          3,
		PredictedClass: "legitimo",
		Probabilities:  map[string]float64{"legitimo": 0.97, "fraude": 0.03},
		FeaturesUsed:   map[string]interface{}{"banco": "001", "valor": 150.5},
	}
}

func TestSynthesizeCleanBoleto(t *testing.T) {
	v := newExplainer().Synthesize(cleanValidation(), cleanPrediction())

	if v.IsFraud {
		t.Fatalf("clean boleto reported as fraud")
	}
	if v.RiskLevel != explain.RiskLow {
		t.Fatalf("risk level = %s, want LOW", v.RiskLevel)
	}
	if len(v.Signals) != 0 {
		t.Fatalf("expected no signals, got %d", len(v.Signals))
	}
	if v.Simple.Status != "VALID" {
		t.Fatalf("simple status = %q, want VALID", v.Simple.Status)
	}
	if v.Simple.Emoji != "✅" {
		t.Fatalf("simple emoji = %q", v.Simple.Emoji)
	}
	if v.Recommendation.Action != "PODE PAGAR" {
		t.Fatalf("recommendation action = %q", v.Recommendation.Action)
	}
	if v.Advanced == nil {
		t.Fatalf("advanced view missing")
	}
	if len(v.Advanced.DetectionMethods) != 0 {
		t.Fatalf("detection methods = %v, want none", v.Advanced.DetectionMethods)
	}
	if v.GeneratedAt.IsZero() {
		t.Fatalf("generatedAt not set")
	}
}

func TestSynthesizeValidatorAndModelAgree(t *testing.T) {
	validation := &boleto.ValidationResult{
		Valid:  false,
		Errors: []string{"Código de barras não tem 44 dígitos"},
	}
	prediction := &boleto.ClassifierResult{
		IsFraud:        true,
		Confidence:     0.9,
		Score:          85,
		PredictedClass: "fraude",
		Probabilities:  map[string]float64{"fraude": 0.9, "legitimo": 0.1},
		FeaturesUsed:   map[string]interface{}{"banco": "999", "valor": 10000},
	}

	v := newExplainer().Synthesize(validation, prediction)

	if !v.IsFraud {
		t.Fatalf("expected fraud verdict")
	}
	if v.RiskLevel != explain.RiskCritical {
		t.Fatalf("risk level = %s, want CRITICAL", v.RiskLevel)
	}
	if len(v.Signals) != 2 {
		t.Fatalf("signals = %d, want 2", len(v.Signals))
	}

	// Validator findings outrank the model signal.
	first := v.Signals[0]
	if first.Source != explain.SourceValidator {
		t.Fatalf("first signal source = %q, want validator", first.Source)
	}
	if first.Severity != explain.SeverityCritical {
		t.Fatalf("first signal severity = %s", first.Severity)
	}
	if first.Category != "codigo_barras" {
		t.Fatalf("first signal category = %q", first.Category)
	}
	if first.Title != "Código de barras inválido" {
		t.Fatalf("first signal title = %q", first.Title)
	}
	second := v.Signals[1]
	if second.Source != explain.SourceModel {
		t.Fatalf("second signal source = %q, want model", second.Source)
	}
	if second.Severity != explain.SeverityHigh {
		t.Fatalf("model signal severity = %s, want high at 0.9 confidence", second.Severity)
	}

	if v.Simple.Status != "FRAUDULENT" {
		t.Fatalf("simple status = %q", v.Simple.Status)
	}
	if v.Simple.Confidence != "Very High" {
		t.Fatalf("confidence label = %q, want Very High", v.Simple.Confidence)
	}
	if v.Simple.PrincipalReason != "Código de barras inválido" {
		t.Fatalf("principal reason = %q", v.Simple.PrincipalReason)
	}
	if v.Recommendation.Action != "NÃO PAGAR" {
		t.Fatalf("recommendation action = %q", v.Recommendation.Action)
	}

	methods := v.Advanced.DetectionMethods
	if len(methods) != 2 || methods[0] != "rule_validation" || methods[1] != "ml_model" {
		t.Fatalf("detection methods = %v", methods)
	}
}

// A validator rejection with a zero model score is still fraud, but the risk
// tier follows the score alone.
func TestSynthesizeValidatorOnlyFraud(t *testing.T) {
	validation := &boleto.ValidationResult{
		Valid:  false,
		Errors: []string{"Código de barras não tem 44 dígitos"},
	}
	prediction := cleanPrediction()
	prediction.Score = 0
	prediction.Confidence = 0

	v := newExplainer().Synthesize(validation, prediction)

	if !v.IsFraud {
		t.Fatalf("expected fraud verdict for invalid boleto")
	}
	if v.RiskLevel != explain.RiskLow {
		t.Fatalf("risk level = %s, want LOW for score 0", v.RiskLevel)
	}
	if len(v.Signals) != 1 {
		t.Fatalf("signals = %d, want 1", len(v.Signals))
	}
	s := v.Signals[0]
	if s.Severity != explain.SeverityCritical || s.Category != "codigo_barras" {
		t.Fatalf("signal = %+v", s)
	}
	if s.Impact != 1.0 {
		t.Fatalf("validator signal impact = %v, want 1.0", s.Impact)
	}
	methods := v.Advanced.DetectionMethods
	if len(methods) != 1 || methods[0] != "rule_validation" {
		t.Fatalf("detection methods = %v", methods)
	}
}

// A fraud flag with a weak score stays LOW rather than being promoted.
func TestSynthesizeLowScoreFraudStaysLow(t *testing.T) {
	prediction := cleanPrediction()
	prediction.IsFraud = true
	prediction.Confidence = 0.45
	prediction.Score = 22
	prediction.PredictedClass = "fraude"

	v := newExplainer().Synthesize(cleanValidation(), prediction)

	if !v.IsFraud {
		t.Fatalf("expected fraud verdict")
	}
	if v.RiskLevel != explain.RiskLow {
		t.Fatalf("risk level = %s, want LOW for score 22", v.RiskLevel)
	}
	if v.Simple.Status != "FRAUDULENT" {
		t.Fatalf("simple status = %q", v.Simple.Status)
	}
	if len(v.Signals) != 1 || v.Signals[0].Severity != explain.SeverityLow {
		t.Fatalf("signals = %+v, want one low-severity model signal", v.Signals)
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  explain.RiskLevel
	}{
		{95, explain.RiskCritical},
		{80, explain.RiskCritical},
		{79.9, explain.RiskHigh},
		{60, explain.RiskHigh},
		{59.9, explain.RiskMedium},
		{40, explain.RiskMedium},
		{39.9, explain.RiskLow},
		{0, explain.RiskLow},
	}

	e := newExplainer()
	for _, tc := range cases {
		prediction := cleanPrediction()
		prediction.IsFraud = true
		prediction.Score = tc.score
		v := e.Synthesize(cleanValidation(), prediction)
		if v.RiskLevel != tc.want {
			t.Fatalf("score %.1f: risk level = %s, want %s", tc.score, v.RiskLevel, tc.want)
		}
		if v.Recommendation.RiskLevel != tc.want {
			t.Fatalf("score %.1f: recommendation tier = %s, want %s", tc.score, v.Recommendation.RiskLevel, tc.want)
		}
	}
}

func TestConfidenceLabels(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{90, "Very High"},
		{80, "Very High"},
		{70, "High"},
		{50, "Medium"},
		{10, "Low"},
	}

	e := newExplainer()
	for _, tc := range cases {
		prediction := cleanPrediction()
		prediction.Score = tc.score
		v := e.Synthesize(cleanValidation(), prediction)
		if v.Simple.Confidence != tc.want {
			t.Fatalf("score %.0f: confidence = %q, want %q", tc.score, v.Simple.Confidence, tc.want)
		}
	}
}

// Equal-severity signals must keep collection order: validator errors in the
// order the validator reported them.
func TestSignalOrderingIsStable(t *testing.T) {
	validation := &boleto.ValidationResult{
		Valid: false,
		Errors: []string{
			"Primeiro dígito verificador do CNPJ inválido",
			"DV do código de barras inválido",
			"Valor inconsistente",
		},
	}
	prediction := cleanPrediction()
	prediction.IsFraud = true
	prediction.Confidence = 0.95
	prediction.Score = 88

	v := newExplainer().Synthesize(validation, prediction)

	if len(v.Signals) != 4 {
		t.Fatalf("signals = %d, want 4", len(v.Signals))
	}
	wantCategories := []string{"dados_beneficiario", "codigo_barras", "valor", "padrao_ml"}
	for i, cat := range wantCategories {
		if v.Signals[i].Category != cat {
			t.Fatalf("signal[%d].category = %q, want %q", i, v.Signals[i].Category, cat)
		}
	}
}

func TestUnknownValidatorErrorPassesThrough(t *testing.T) {
	validation := &boleto.ValidationResult{
		Valid:  false,
		Errors: []string{"Linha digitável ilegível"},
	}

	v := newExplainer().Synthesize(validation, cleanPrediction())

	if len(v.Signals) != 1 {
		t.Fatalf("signals = %d, want 1", len(v.Signals))
	}
	s := v.Signals[0]
	if s.Category != "outros" {
		t.Fatalf("category = %q, want outros", s.Category)
	}
	if s.Title != "Linha digitável ilegível" || s.Detail != "Linha digitável ilegível" {
		t.Fatalf("unknown error not passed through: %+v", s)
	}
}

func TestSynthesizeNilInputsFallBack(t *testing.T) {
	e := newExplainer()

	cases := []struct {
		name       string
		validation *boleto.ValidationResult
		prediction *boleto.ClassifierResult
	}{
		{"nil validation", nil, cleanPrediction()},
		{"nil prediction", cleanValidation(), nil},
		{"both nil", nil, nil},
	}
	for _, tc := range cases {
		v := e.Synthesize(tc.validation, tc.prediction)
		if v.RiskLevel != explain.RiskUnknown {
			t.Fatalf("%s: risk level = %s, want UNKNOWN", tc.name, v.RiskLevel)
		}
		if v.Signals == nil || len(v.Signals) != 0 {
			t.Fatalf("%s: signals = %v, want empty non-nil", tc.name, v.Signals)
		}
		if v.Recommendation.Message != "Erro ao gerar explicação detalhada" {
			t.Fatalf("%s: recommendation message = %q", tc.name, v.Recommendation.Message)
		}
	}
}

func TestSynthesizeMalformedPredictionFallsBack(t *testing.T) {
	prediction := cleanPrediction()
	prediction.IsFraud = true
	prediction.Confidence = 1.7
	prediction.Score = 85

	v := newExplainer().Synthesize(cleanValidation(), prediction)

	if v.RiskLevel != explain.RiskUnknown {
		t.Fatalf("risk level = %s, want UNKNOWN for out-of-range confidence", v.RiskLevel)
	}
	// The fraud flag still carries through to the minimal view.
	if !v.IsFraud || v.Simple.Status != "FRAUDULENT" {
		t.Fatalf("fallback lost fraud flag: %+v", v.Simple)
	}
}

func TestTopFeaturesOrderAndCap(t *testing.T) {
	prediction := cleanPrediction()
	prediction.FeaturesUsed = map[string]interface{}{
		"banco":          "001",
		"agencia":        "1234",
		"valor":          500.0,
		"linha_moeda":    "9",
		"linha_valor":    "50000",
		"codigoBanco":    "001",
		"linha_codBanco": "001",
	}
	prediction.FeatureImportance = map[string]float64{
		"valor":   0.4,
		"banco":   0.3,
		"agencia": 0.2,
	}

	v := newExplainer().Synthesize(cleanValidation(), prediction)

	features := v.Advanced.TopFeatures
	if len(features) != 5 {
		t.Fatalf("top features = %d, want 5", len(features))
	}
	if features[0].Feature != "valor" || features[1].Feature != "banco" || features[2].Feature != "agencia" {
		t.Fatalf("importance ordering broken: %s, %s, %s",
			features[0].Feature, features[1].Feature, features[2].Feature)
	}
	if features[0].Label != "Valor do boleto" {
		t.Fatalf("label = %q", features[0].Label)
	}
	if features[0].Importance == nil || *features[0].Importance != 0.4 {
		t.Fatalf("importance not carried through: %+v", features[0])
	}
	// Features without classifier-supplied importance report none at all.
	for _, f := range features[3:] {
		if f.Importance != nil {
			t.Fatalf("feature %s has synthesized importance %v", f.Feature, *f.Importance)
		}
	}
}
