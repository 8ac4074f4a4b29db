package domain

type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

const (
	highRiskRedFlags      = 3
	mediumRiskYellowFlags = 3
)

// RiskAssessment is derived from an AnalysisResult and never stored.
type RiskAssessment struct {
	Tier          RiskTier `json:"tier"`
	LabelKey      string   `json:"label_key"`
	MessageKey    string   `json:"message_key"`
	Label         string   `json:"label"`
	Message       string   `json:"message"`
	RedFlags      int      `json:"red_flags"`
	YellowFlags   int      `json:"yellow_flags"`
	PositiveTerms int      `json:"positive_terms"`
}

// ClassifyRisk maps flag counts to a tier. First matching rule wins:
// three or more red flags is HIGH; any red flag or three or more yellow flags is
// MEDIUM; everything else is LOW.
func ClassifyRisk(redFlags, yellowFlags int) RiskTier {
	switch {
	case redFlags >= highRiskRedFlags:
		return RiskHigh
	case redFlags >= 1 || yellowFlags >= mediumRiskYellowFlags:
		return RiskMedium
	default:
		return RiskLow
	}
}

// AssessRisk classifies a risk analysis and attaches English label and message.
func AssessRisk(risk RiskAnalysis) RiskAssessment {
	out := RiskAssessment{
		Tier:          ClassifyRisk(len(risk.RedFlags), len(risk.YellowFlags)),
		RedFlags:      len(risk.RedFlags),
		YellowFlags:   len(risk.YellowFlags),
		PositiveTerms: len(risk.PositiveTerms),
	}
	switch out.Tier {
	case RiskHigh:
		out.LabelKey, out.MessageKey = "highRisk", "cautionMessage"
	case RiskMedium:
		out.LabelKey, out.MessageKey = "mediumRisk", "someConcerns"
	default:
		out.LabelKey, out.MessageKey = "lowRisk", "fairBalance"
	}
	return out.Localize(BaseStrings())
}

// Localize fills Label and Message from a string table, keeping the English text
// for keys the table lacks.
func (r RiskAssessment) Localize(table StringTable) RiskAssessment {
	r.Label = table.Lookup(r.LabelKey)
	r.Message = table.Lookup(r.MessageKey)
	return r
}
