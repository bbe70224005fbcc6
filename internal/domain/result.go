package domain

// Verdict is the per-requirement outcome of a comparison.
type Verdict string

const (
	VerdictMeets   Verdict = "ATENDE"
	VerdictFails   Verdict = "NAO_ATENDE"
	VerdictUnclear Verdict = "DUVIDA"
)

// MatchResult maps every requirement key of the edital to exactly one verdict.
// It is never mutated after Compare returns; changed inputs mean a fresh run.
type MatchResult map[string]Verdict

// OverallStatus is the aggregate determination for a (product, edital) pair.
type OverallStatus string

const (
	StatusApproved  OverallStatus = "APROVADO"
	StatusRejected  OverallStatus = "REPROVADO"
	StatusUncertain OverallStatus = "DUVIDOSO"
)

// KeyRequirementReport documents whether and how the key-requirement override
// fired. It is always populated so callers can audit the final status.
type KeyRequirementReport struct {
	Configured      []string      `json:"configured"`
	PresentInEdital []string      `json:"present_in_edital"`
	Policy          string        `json:"policy"`
	Total           int           `json:"total"`
	Met             int           `json:"atende"`
	Failed          int           `json:"nao_atende"`
	Unclear         int           `json:"duvida"`
	OverrideApplied bool          `json:"override_applied"`
	BaseStatus      OverallStatus `json:"base_status"`
}

// SequenceStep is one entry of the ordered sequence filter walk.
type SequenceStep struct {
	Key     string   `json:"requisito"`
	Present bool     `json:"present"`
	Status  *Verdict `json:"status"`
}

// SequenceFilterReport documents the ordered first-to-fail gate. FinalStatus
// is nil when no configured key was present in the edital.
type SequenceFilterReport struct {
	Configured      []string       `json:"configured"`
	PresentInEdital []string       `json:"present_in_edital"`
	Steps           []SequenceStep `json:"steps"`
	FinalStatus     *OverallStatus `json:"final_status"`
	OverrideApplied bool           `json:"override_applied"`
}

// ScoreResult aggregates a MatchResult into tallies, a percentage and the
// overall status, together with both override reports.
type ScoreResult struct {
	ScorePercent     float64 `json:"score_percent"`
	MandatoryTotal   int     `json:"obrigatorios_total"`
	MandatoryMet     int     `json:"obrigatorios_atende"`
	MandatoryFailed  int     `json:"obrigatorios_nao_atende"`
	MandatoryUnclear int     `json:"obrigatorios_duvida"`
	OptionalTotal    int     `json:"opcionais_total"`
	OptionalMet      int     `json:"opcionais_atende"`
	OptionalFailed   int     `json:"opcionais_nao_atende"`
	OptionalUnclear  int     `json:"opcionais_duvida"`

	OverallStatus   OverallStatus        `json:"status_geral"`
	KeyRequirements KeyRequirementReport `json:"key_requirements"`
	SequenceFilter  SequenceFilterReport `json:"sequence_filter"`
}

// Diagnostics describes which extraction paths produced an analysis and what,
// if anything, degraded along the way. Returned with every result so a
// DUVIDOSO outcome can be traced to its cause.
type Diagnostics struct {
	ProductExtraction string   `json:"produto_extracao"`
	EditalExtraction  string   `json:"edital_extracao"`
	ProductTextMethod string   `json:"produto_texto_metodo,omitempty"`
	EditalTextMethod  string   `json:"edital_texto_metodo,omitempty"`
	ChunksTotal       int      `json:"edital_chunks_total"`
	ChunksUsed        int      `json:"edital_chunks_usados"`
	Degraded          []string `json:"degradacoes,omitempty"`
	FromCache         bool     `json:"resultado_em_cache"`
}

// AnalysisResult is the full output of one pipeline run.
type AnalysisResult struct {
	ID             string            `json:"id"`
	Product        *ProductDocument  `json:"produto_json"`
	Edital         *EditalDocument   `json:"edital_json"`
	Matching       MatchResult       `json:"matching"`
	Score          *ScoreResult      `json:"score"`
	Justifications map[string]string `json:"justificativas"`
	Diagnostics    Diagnostics       `json:"diagnostico"`
}

// ClientItem is one row of the compact client-facing report.
type ClientItem struct {
	Key           string      `json:"chave"`
	Status        Verdict     `json:"status"`
	Mandatory     bool        `json:"obrigatorio"`
	Requirement   Requirement `json:"requisito"`
	ProductValue  any         `json:"produto_valor"`
	ProductUnit   *string     `json:"produto_unidade,omitempty"`
	Justification string      `json:"justificativa,omitempty"`
}

// ClientSummary is the condensed view served to dashboard consumers.
type ClientSummary struct {
	OverallStatus  OverallStatus `json:"status_geral"`
	ScorePercent   float64       `json:"score_percent"`
	MandatoryMet   int           `json:"obrigatorios_atende"`
	MandatoryTotal int           `json:"obrigatorios_total"`
	Principals     []string      `json:"principais"`
	Met            []string      `json:"atende"`
	Failed         []string      `json:"nao_atende"`
	Unclear        []string      `json:"duvida"`
	Items          []ClientItem  `json:"itens"`
}
