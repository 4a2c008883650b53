package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// Rating is the headline recommendation derived from the total score.
	Rating string

	// ClaimStatus is the outcome of evaluating one claim.
	ClaimStatus string

	// Operator is a claim comparison operator.
	Operator string

	// RiskTag classifies a headline into a risk category.
	RiskTag string

	// Severity ranks red flags and alerts.
	Severity string

	// Light is a decision card traffic light.
	Light string

	// SourceTier is the whitelist tier of a news domain.
	SourceTier string

	// SupportPolicy selects the denominator for thesis support.
	SupportPolicy string

	// ReportFormat is a memo file format written by the report command.
	ReportFormat string
)

// All output modes supported.
const (
	CSVOut      OutputMode = "csv"
	TextOut     OutputMode = "text" // default
	JSONOut     OutputMode = "json"
	MarkdownOut OutputMode = "markdown"
	HTMLOut     OutputMode = "html"
	DOCXOut     OutputMode = "docx"
	PDFOut      OutputMode = "pdf"
	ParquetOut  OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Ratings.
const (
	RatingBuy   Rating = "BUY"
	RatingHold  Rating = "HOLD"
	RatingAvoid Rating = "AVOID"
)

// Claim statuses.
const (
	StatusPass    ClaimStatus = "PASS"
	StatusFail    ClaimStatus = "FAIL"
	StatusUnknown ClaimStatus = "UNKNOWN"
)

// Claim operators.
const (
	OpGT Operator = ">"
	OpGE Operator = ">="
	OpLT Operator = "<"
	OpLE Operator = "<="
	OpEQ Operator = "=="
)

// Risk tags, in rule priority order.
const (
	TagLabor       RiskTag = "LABOR"
	TagInsurance   RiskTag = "INSURANCE"
	TagRegulatory  RiskTag = "REGULATORY"
	TagSafety      RiskTag = "SAFETY"
	TagCompetition RiskTag = "COMPETITION"
	TagMacro       RiskTag = "MACRO"
	TagFinancial   RiskTag = "FINANCIAL"
	TagOther       RiskTag = "OTHER"
	TagTotal       RiskTag = "TOTAL" // dashboard roll-up row only
)

// Severities.
const (
	SeverityHigh Severity = "HIGH"
	SeverityMed  Severity = "MED"
	SeverityLow  Severity = "LOW"
)

// Decision card lights.
const (
	LightGreen  Light = "GREEN"
	LightYellow Light = "YELLOW"
	LightRed    Light = "RED"
	LightGray   Light = "GRAY"
)

// Source tiers.
const (
	TierTop     SourceTier = "TOP"
	TierMid     SourceTier = "MID"
	TierLow     SourceTier = "LOW"
	TierOther   SourceTier = "OTHER"
	TierUnknown SourceTier = "UNKNOWN"
)

// Support policies.
const (
	SupportDecided SupportPolicy = "decided" // default
	SupportAll     SupportPolicy = "all"
)

// Report formats.
const (
	FormatMarkdown ReportFormat = "md"
	FormatHTML     ReportFormat = "html"
	FormatDOCX     ReportFormat = "docx"
	FormatPDF      ReportFormat = "pdf"
)

// AllRiskTags lists the taggable categories in rule priority order.
var AllRiskTags = []RiskTag{TagLabor, TagInsurance, TagRegulatory, TagSafety, TagCompetition, TagMacro, TagFinancial, TagOther}

// CoreRiskTags are the tags counted toward the balance/risk core hits penalty.
var CoreRiskTags = []RiskTag{TagLabor, TagInsurance, TagRegulatory}

// AlertRiskTags are the tags watched by the alerts command.
var AlertRiskTags = []RiskTag{TagInsurance, TagRegulatory, TagLabor, TagSafety}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:      {},
	TextOut:     {},
	JSONOut:     {},
	MarkdownOut: {},
	HTMLOut:     {},
	DOCXOut:     {},
	PDFOut:      {},
	ParquetOut:  {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidOperators lists the comparison operators a claim may use.
var ValidOperators = map[Operator]struct{}{
	OpGT: {},
	OpGE: {},
	OpLT: {},
	OpLE: {},
	OpEQ: {},
}

// ValidRiskTags lists all taggable categories.
var ValidRiskTags = map[RiskTag]struct{}{
	TagLabor:       {},
	TagInsurance:   {},
	TagRegulatory:  {},
	TagSafety:      {},
	TagCompetition: {},
	TagMacro:       {},
	TagFinancial:   {},
	TagOther:       {},
}

// ValidSupportPolicies lists the thesis support policies.
var ValidSupportPolicies = map[SupportPolicy]struct{}{
	SupportDecided: {},
	SupportAll:     {},
}

// ValidReportFormats lists the memo formats.
var ValidReportFormats = map[ReportFormat]struct{}{
	FormatMarkdown: {},
	FormatHTML:     {},
	FormatDOCX:     {},
	FormatPDF:      {},
}

// ValidSourceTiers lists whitelist tiers.
var ValidSourceTiers = map[SourceTier]struct{}{
	TierTop:   {},
	TierMid:   {},
	TierLow:   {},
	TierOther: {},
}

// SeverityRank orders severities for sorting, lower first.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMed:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}
