package boleto

import (
	"context"

	"github.com/shopspring/decimal"
)

// BoletoData is the structured record the field parser extracts from a slip.
type BoletoData struct {
	BankCode   string          `json:"codigo_banco"`
	BankName   string          `json:"banco_nome"`
	Agency     string          `json:"agencia"`
	Amount     decimal.Decimal `json:"valor"`
	DueDate    string          `json:"vencimento"`
	Barcode    string          `json:"codigo_barras"`
	DigitLine  string          `json:"linha_digitavel"`
	PayeeTaxId string          `json:"cnpj_beneficiario"`
}

// ValidationResult is the FEBRABAN format validator's output. Errors is an
// ordered list of fixed Portuguese error strings (the explain taxonomy keys).
type ValidationResult struct {
	Valid   bool                   `json:"valid"`
	Errors  []string               `json:"errors"`
	Details map[string]interface{} `json:"details"`
}

// ClassifierResult is the ML model's output. FeatureImportance is optional:
// when the model exposes real importances they drive the advanced view, and
// nothing is synthesized in their place.
type ClassifierResult struct {
	IsFraud           bool                   `json:"is_fraud"`
	Confidence        float64                `json:"confidence" validate:"min=0,max=1"`
	Score             float64                `json:"score" validate:"min=0,max=100"`
	PredictedClass    string                 `json:"predicted_class"`
	Probabilities     map[string]float64     `json:"probabilities"`
	FeaturesUsed      map[string]interface{} `json:"features_used"`
	FeatureImportance map[string]float64     `json:"feature_importance,omitempty"`
}

// The four analysis collaborators. All are out-of-process (the ML sidecar);
// the worker only consumes their outputs.
type TextExtractor interface {
	ExtractText(ctx context.Context, fileBytes []byte, fileType string) (string, error)
}

type FieldParser interface {
	ParseFields(ctx context.Context, text string) (*BoletoData, error)
}

type FormatValidator interface {
	Validate(ctx context.Context, data *BoletoData) (*ValidationResult, error)
}

type FraudClassifier interface {
	Predict(ctx context.Context, data *BoletoData) (*ClassifierResult, error)
}
