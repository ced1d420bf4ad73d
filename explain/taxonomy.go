package explain

// Signal sources.
const (
	SourceValidator = "Validação FEBRABAN"
	SourceModel     = "Modelo de IA"
)

// Detection methods reported in the advanced view.
const (
	MethodRuleValidation = "rule_validation"
	MethodMLModel        = "ml_model"
)

const CategoryOther = "outros"

type errorTranslation struct {
	Lay      string
	Tech     string
	Category string
}

// errorTranslations maps the validator's fixed Portuguese error strings to
// lay/technical wording and a category tag. Unknown errors fall through to an
// identity mapping under "outros".
var errorTranslations = map[string]errorTranslation{
	"Primeiro dígito verificador do CNPJ inválido": {
		Lay:      "CNPJ do beneficiário incorreto",
		Tech:     "Primeiro dígito verificador do CNPJ não corresponde ao algoritmo da Receita Federal",
		Category: "dados_beneficiario",
	},
	"Segundo dígito verificador do CNPJ inválido": {
		Lay:      "CNPJ do beneficiário incorreto",
		Tech:     "Segundo dígito verificador do CNPJ não corresponde ao algoritmo da Receita Federal",
		Category: "dados_beneficiario",
	},
	"Código de barras não tem 44 dígitos": {
		Lay:      "Código de barras inválido",
		Tech:     "Código de barras não possui o tamanho padrão FEBRABAN (44 dígitos)",
		Category: "codigo_barras",
	},
	"DV do código de barras inválido": {
		Lay:      "Código de barras adulterado",
		Tech:     "Dígito verificador do código de barras não corresponde ao cálculo módulo 11",
		Category: "codigo_barras",
	},
	"Valor inconsistente": {
		Lay:      "Valor do boleto suspeito",
		Tech:     "Valor informado não corresponde ao valor codificado na linha digitável",
		Category: "valor",
	},
}

type categoryInfo struct {
	Label string
	Icon  string
	Color string
}

var categories = map[string]categoryInfo{
	"dados_beneficiario": {Label: "Dados do Beneficiário", Icon: "🏢", Color: "red"},
	"codigo_barras":      {Label: "Código de Barras", Icon: "📊", Color: "orange"},
	"valor":              {Label: "Valor do Boleto", Icon: "💰", Color: "orange"},
	"vencimento":         {Label: "Data de Vencimento", Icon: "📅", Color: "yellow"},
	"banco":              {Label: "Instituição Bancária", Icon: "🏦", Color: "blue"},
	"padrao_ml":          {Label: "Padrão Detectado por IA", Icon: "🤖", Color: "purple"},
	CategoryOther:        {Label: "Outros", Icon: "❓", Color: "gray"},
}

// featureLabels translates model feature names for the advanced view.
// Unknown names pass through unchanged.
var featureLabels = map[string]string{
	"banco":          "Código do banco",
	"codigoBanco":    "Código bancário FEBRABAN",
	"agencia":        "Número da agência",
	"valor":          "Valor do boleto",
	"linha_codBanco": "Código do banco na linha digitável",
	"linha_moeda":    "Código da moeda",
	"linha_valor":    "Valor codificado",
}

func translateError(raw string) errorTranslation {
	if t, ok := errorTranslations[raw]; ok {
		return t
	}
	return errorTranslation{Lay: raw, Tech: raw, Category: CategoryOther}
}

func categoryFor(key string) categoryInfo {
	if c, ok := categories[key]; ok {
		return c
	}
	return categories[CategoryOther]
}

func featureLabel(name string) string {
	if l, ok := featureLabels[name]; ok {
		return l
	}
	return name
}
