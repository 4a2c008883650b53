package contract

import (
	"cmp"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/fundscore/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit     = 10
	MaxResultLimit         = 1000
	DefaultPrecision       = 1
	DefaultNewsWindowDays  = 30
	MaxNewsWindowDays      = 365
	DefaultEvidenceMaxRows = 30
	DefaultDataDir         = "data"
	DefaultThesesDir       = "theses"
	DefaultOutDir          = "reports"
	DefaultAddr            = "127.0.0.1:8080"
	DefaultHTTPTimeout     = 20 * time.Second
	MaxDCFProjectionYears  = 20
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateFormat is how as-of dates are written on the command line and in reports.
const DateFormat = time.DateOnly

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// RatingRawInput holds optional rating band overrides from the config file.
type RatingRawInput struct {
	Buy  *int `mapstructure:"buy"`
	Hold *int `mapstructure:"hold"`
}

// DCFScenarioRaw is one DCF scenario from the config file. Missing fields keep the default.
type DCFScenarioRaw struct {
	Name      string   `mapstructure:"name"`
	RevCAGR   *float64 `mapstructure:"rev-cagr"`
	FCFMargin *float64 `mapstructure:"fcf-margin"`
	WACC      *float64 `mapstructure:"wacc"`
	TerminalG *float64 `mapstructure:"terminal-g"`
}

// DCFRawInput holds DCF overrides from the config file.
type DCFRawInput struct {
	ProjectionYears *int             `mapstructure:"projection-years"`
	WACCGrid        []float64        `mapstructure:"wacc-grid"`
	TerminalGGrid   []float64        `mapstructure:"terminal-g-grid"`
	Scenarios       []DCFScenarioRaw `mapstructure:"scenarios"`
}

// Config holds the runtime configuration for every command.
// This struct is the "final, validated" config.
type Config struct {
	Ticker     string
	Peers      []string
	All        bool
	DataDir    string
	ThesesDir  string
	ThesisPath string
	ThesisText string
	OutDir     string

	ResultLimit int
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	Explain     bool
	UseColors   bool

	SupportPolicy   schema.SupportPolicy
	AsOf            time.Time
	NewsWindowDays  int
	EvidenceMaxRows int
	Tag             schema.RiskTag
	Formats         []schema.ReportFormat

	SECUserAgent string
	Feeds        []string
	HTTPTimeout  time.Duration
	Addr         string

	RatingBands schema.RatingBands
	DCF         schema.DCFConfig

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	TickerStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Peers             string `mapstructure:"peers"`
	DataDir           string `mapstructure:"data-dir"`
	ThesesDir         string `mapstructure:"theses-dir"`
	OutDir            string `mapstructure:"out-dir"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Precision         int    `mapstructure:"precision"`
	Limit             int    `mapstructure:"limit"`
	Workers           int    `mapstructure:"workers"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	SupportPolicy     string `mapstructure:"support-policy"`
	AsOf              string `mapstructure:"as-of"`
	NewsWindowDays    int    `mapstructure:"news-window-days"`
	EvidenceMaxRows   int    `mapstructure:"evidence-max-rows"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`

	// --- Fields from subcommand flags ---
	All          bool   `mapstructure:"all"`
	Explain      bool   `mapstructure:"explain"`
	Thesis       string `mapstructure:"thesis"`
	Text         string `mapstructure:"text"`
	Tag          string `mapstructure:"tag"`
	Formats      string `mapstructure:"formats"`
	SECUserAgent string `mapstructure:"sec-user-agent"`
	Feeds        string `mapstructure:"feeds"`
	HTTPTimeout  string `mapstructure:"http-timeout"`
	Addr         string `mapstructure:"addr"`

	// --- Nested sections from the config file ---
	Rating RatingRawInput `mapstructure:"rating"`
	DCF    DCFRawInput    `mapstructure:"dcf"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Peers = slices.Clone(c.Peers)
	clone.Feeds = slices.Clone(c.Feeds)
	clone.Formats = slices.Clone(c.Formats)
	clone.DCF.WACCGrid = slices.Clone(c.DCF.WACCGrid)
	clone.DCF.TerminalGGrid = slices.Clone(c.DCF.TerminalGGrid)
	clone.DCF.Scenarios = slices.Clone(c.DCF.Scenarios)
	return &clone
}

// CloneWithTicker creates a copy of the Config scoped to another ticker.
func (c *Config) CloneWithTicker(ticker string) *Config {
	clone := c.Clone()
	clone.Ticker = schema.NormalizeTicker(ticker)
	return clone
}

// AsOfDate returns the as-of date in YYYY-MM-DD form.
func (c *Config) AsOfDate() string {
	return c.AsOf.Format(DateFormat)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processAsOf(cfg, input, time.Now()); err != nil {
		return err
	}
	if err := processNewsInputs(cfg, input); err != nil {
		return err
	}
	if err := processReportInputs(cfg, input); err != nil {
		return err
	}
	if err := processRatingBands(cfg, input); err != nil {
		return err
	}
	if err := processDCF(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// Cache and run history must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateSimpleInputs processes and validates the scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Ticker = schema.NormalizeTicker(input.TickerStr)
	cfg.All = input.All
	cfg.Explain = input.Explain
	cfg.OutputFile = input.OutputFile
	cfg.ThesisPath = input.Thesis
	cfg.ThesisText = strings.TrimSpace(input.Text)
	cfg.DataDir = cmp.Or(input.DataDir, DefaultDataDir)
	cfg.ThesesDir = cmp.Or(input.ThesesDir, DefaultThesesDir)
	cfg.OutDir = cmp.Or(input.OutDir, DefaultOutDir)
	cfg.Addr = cmp.Or(input.Addr, DefaultAddr)

	cfg.Peers = nil
	for _, p := range splitList(input.Peers) {
		cfg.Peers = append(cfg.Peers, schema.NormalizeTicker(p))
	}

	// Parse color flag
	colors, err := ParseBoolString(cmp.Or(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Width Validation ---
	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}
	cfg.Width = input.Width

	// --- 4. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(cmp.Or(input.Output, string(schema.TextOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, markdown, html, docx, pdf, parquet", input.Output)
	}

	// --- 5. Support Policy Validation ---
	cfg.SupportPolicy = schema.SupportPolicy(strings.ToLower(cmp.Or(input.SupportPolicy, string(schema.SupportDecided))))
	if _, ok := schema.ValidSupportPolicies[cfg.SupportPolicy]; !ok {
		return fmt.Errorf("invalid support policy '%s'. must be decided, all", input.SupportPolicy)
	}

	// --- 6. Backend Validation ---
	return validateBackendConfigs(cfg, input)
}

// processAsOf parses the as-of date, defaulting to today in UTC.
func processAsOf(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if input.AsOf == "" {
		y, m, d := now.UTC().Date()
		cfg.AsOf = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return nil
	}
	asOf, err := time.Parse(DateFormat, input.AsOf)
	if err != nil {
		return fmt.Errorf("invalid as-of date %q, expected YYYY-MM-DD: %w", input.AsOf, err)
	}
	cfg.AsOf = asOf
	return nil
}

// processNewsInputs validates the news window, evidence and ingestion settings.
func processNewsInputs(cfg *Config, input *ConfigRawInput) error {
	window := cmp.Or(input.NewsWindowDays, DefaultNewsWindowDays)
	if window < 1 || window > MaxNewsWindowDays {
		return fmt.Errorf("news-window-days must be between 1 and %d (received %d)", MaxNewsWindowDays, window)
	}
	cfg.NewsWindowDays = window

	maxRows := cmp.Or(input.EvidenceMaxRows, DefaultEvidenceMaxRows)
	if maxRows < 1 || maxRows > MaxResultLimit {
		return fmt.Errorf("evidence-max-rows must be between 1 and %d (received %d)", MaxResultLimit, maxRows)
	}
	cfg.EvidenceMaxRows = maxRows

	cfg.Tag = schema.RiskTag(strings.ToUpper(strings.TrimSpace(input.Tag)))
	if cfg.Tag != "" {
		if _, ok := schema.ValidRiskTags[cfg.Tag]; !ok {
			return fmt.Errorf("invalid risk tag '%s'", input.Tag)
		}
	}

	cfg.SECUserAgent = strings.TrimSpace(input.SECUserAgent)
	cfg.Feeds = splitList(input.Feeds)

	cfg.HTTPTimeout = DefaultHTTPTimeout
	if input.HTTPTimeout != "" {
		d, err := time.ParseDuration(input.HTTPTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid http-timeout %q", input.HTTPTimeout)
		}
		cfg.HTTPTimeout = d
	}
	return nil
}

// processReportInputs parses the memo formats.
func processReportInputs(cfg *Config, input *ConfigRawInput) error {
	raw := splitList(input.Formats)
	if len(raw) == 0 {
		raw = []string{string(schema.FormatMarkdown)}
	}
	cfg.Formats = nil
	for _, f := range raw {
		format := schema.ReportFormat(strings.ToLower(f))
		if _, ok := schema.ValidReportFormats[format]; !ok {
			return fmt.Errorf("invalid report format '%s'. must be md, html, docx, pdf", f)
		}
		if !slices.Contains(cfg.Formats, format) {
			cfg.Formats = append(cfg.Formats, format)
		}
	}
	return nil
}

// processRatingBands applies config file overrides on top of the default bands.
func processRatingBands(cfg *Config, input *ConfigRawInput) error {
	bands := schema.DefaultRatingBands
	if input.Rating.Buy != nil {
		bands.Buy = *input.Rating.Buy
	}
	if input.Rating.Hold != nil {
		bands.Hold = *input.Rating.Hold
	}
	if bands.Hold < 0 || bands.Buy > 100 || bands.Hold > bands.Buy {
		return fmt.Errorf("rating bands must satisfy 0 <= hold <= buy <= 100 (received hold=%d buy=%d)", bands.Hold, bands.Buy)
	}
	cfg.RatingBands = bands
	return nil
}

// processDCF applies config file overrides on top of the default DCF settings.
// A scenario with a known name overrides the matching default, others are appended.
func processDCF(cfg *Config, input *ConfigRawInput) error {
	dcf := schema.DefaultDCFConfig()
	raw := input.DCF

	if raw.ProjectionYears != nil {
		dcf.ProjectionYears = *raw.ProjectionYears
	}
	if dcf.ProjectionYears < 1 || dcf.ProjectionYears > MaxDCFProjectionYears {
		return fmt.Errorf("dcf projection-years must be between 1 and %d (received %d)", MaxDCFProjectionYears, dcf.ProjectionYears)
	}
	if len(raw.WACCGrid) > 0 {
		dcf.WACCGrid = slices.Clone(raw.WACCGrid)
	}
	if len(raw.TerminalGGrid) > 0 {
		dcf.TerminalGGrid = slices.Clone(raw.TerminalGGrid)
	}
	for _, w := range dcf.WACCGrid {
		if w <= 0 || w >= 1 {
			return fmt.Errorf("dcf wacc-grid values must be between 0 and 1 (received %.4f)", w)
		}
	}

	for _, s := range raw.Scenarios {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			return fmt.Errorf("dcf scenarios need a name")
		}
		idx := slices.IndexFunc(dcf.Scenarios, func(a schema.DCFAssumption) bool { return a.Name == name })
		if idx < 0 {
			dcf.Scenarios = append(dcf.Scenarios, schema.DCFAssumption{Name: name})
			idx = len(dcf.Scenarios) - 1
		}
		a := &dcf.Scenarios[idx]
		if s.RevCAGR != nil {
			a.RevCAGR = *s.RevCAGR
		}
		if s.FCFMargin != nil {
			m := *s.FCFMargin
			a.FCFMargin = &m
		}
		if s.WACC != nil {
			a.WACC = *s.WACC
		}
		if s.TerminalG != nil {
			a.TerminalG = *s.TerminalG
		}
		if a.WACC <= 0 {
			return fmt.Errorf("dcf scenario %q needs a positive wacc", name)
		}
	}
	cfg.DCF = dcf
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
