package schema

// Custom string types for type safety.
type (
	// MetricKey names a counter inside one month of a language time series.
	MetricKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run tracking.
	DatabaseBackend string

	// RepoState is the processing state of one repository, derived from checkpoint files.
	RepoState string

	// ModelType is the family of a skill classifier.
	ModelType string
)

// Metric keys recorded per language per month.
const (
	MetricAdded      MetricKey = "added"
	MetricDeleted    MetricKey = "deleted"
	MetricTooBig     MetricKey = "too_big_to_analyze"
	MetricSigContrib MetricKey = "sig_contrib"
)

// AllMetricKeys lists every metric key in display order.
var AllMetricKeys = []MetricKey{MetricAdded, MetricDeleted, MetricTooBig, MetricSigContrib}

// IsMetricKey reports whether key names a counter rather than a model tag.
func IsMetricKey(key string) bool {
	for _, k := range AllMetricKeys {
		if string(k) == key {
			return true
		}
	}
	return false
}

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Repository states. The presence of checkpoint files is the state.
const (
	StateNotStarted        RepoState = "not_started"
	StateRawStatsCollected RepoState = "raw_stats_collected"
	StateScored            RepoState = "scored"
	StateDone              RepoState = "done"
	StateClaimed           RepoState = "claimed"
	StateSkipped           RepoState = "skipped"
	StateFailed            RepoState = "failed"
)

// Classifier families.
const (
	CodeToSkill   ModelType = "c2s" // snippet -> skill
	ImportToSkill ModelType = "i2s" // import list -> skill
	LifeOfPy      ModelType = "life_of_py"
)

// ValidModelTypes lists all valid classifier families.
var ValidModelTypes = map[ModelType]struct{}{
	CodeToSkill:   {},
	ImportToSkill: {},
	LifeOfPy:      {},
}

// Checkpoint layout names.
const (
	TmpStatsDir     = "tmp-stats"
	FinalStatsDir   = "final-stats"
	TouchFilesDir   = "touch-files"
	KillSwitchName  = "kill_switch"
	RawStatsSuffix  = ".jsonl"
	LibsSuffix      = "_libs.jsonl"
	ProfileSuffix   = "_user_profile.jsonl"
	MergedFileName  = "mt_profile.json"
	MaxUserNameSize = 255
)
