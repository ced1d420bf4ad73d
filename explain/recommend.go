package explain

// recommendations is the fixed action-guidance table, keyed by risk tier.
var recommendations = map[RiskLevel]Recommendation{
	RiskLow: {
		RiskLevel: RiskLow,
		Emoji:     "✅",
		Color:     "green",
		Action:    "PODE PAGAR",
		Message:   "Este boleto passou nas verificações de segurança. Ainda assim, sempre confira os dados do beneficiário antes de efetuar o pagamento.",
		NextSteps: []string{
			"Confira o nome do beneficiário",
			"Verifique o valor e vencimento",
			"Efetue o pagamento com segurança",
		},
	},
	RiskMedium: {
		RiskLevel: RiskMedium,
		Emoji:     "ℹ️",
		Color:     "yellow",
		Action:    "VERIFICAR ANTES DE PAGAR",
		Message:   "Este boleto apresenta algumas inconsistências. Por precaução, confirme os dados com o emissor antes de efetuar o pagamento.",
		NextSteps: []string{
			"🔍 Verifique os dados do beneficiário",
			"📞 Confirme com o emissor se possível",
			"⏸️ Considere aguardar confirmação antes de pagar",
			"✅ Prossiga com cautela após verificação",
		},
	},
	RiskHigh: {
		RiskLevel: RiskHigh,
		Emoji:     "⚠️",
		Color:     "orange",
		Action:    "SUSPEITO - NÃO PAGAR",
		Message:   "Este boleto apresenta características SUSPEITAS. Recomendamos fortemente que você NÃO efetue o pagamento até confirmar sua autenticidade com o emissor.",
		NextSteps: []string{
			"🛑 Suspenda o pagamento",
			"📞 Confirme com o emissor por telefone oficial",
			"🔍 Solicite um novo boleto se houver dúvidas",
			"⚠️ Mantenha vigilância contra possíveis golpes",
		},
	},
	RiskCritical: {
		RiskLevel: RiskCritical,
		Emoji:     "🚨",
		Color:     "red",
		Action:    "NÃO PAGAR",
		Message:   "Este boleto apresenta sinais CLAROS de fraude. NÃO efetue o pagamento sob nenhuma circunstância. Entre em contato com o emissor através de canais oficiais para verificar a autenticidade.",
		NextSteps: []string{
			"❌ NÃO efetue o pagamento",
			"📞 Entre em contato com o emissor por canais oficiais",
			"🚨 Reporte a tentativa de fraude às autoridades",
			"⚠️ Alerte outras pessoas sobre este golpe",
		},
	},
}

func recommendationFor(level RiskLevel) Recommendation {
	if r, ok := recommendations[level]; ok {
		return r
	}
	return fallbackRecommendation()
}

func fallbackRecommendation() Recommendation {
	return Recommendation{
		RiskLevel: RiskUnknown,
		Message:   "Erro ao gerar explicação detalhada",
	}
}
