package cfg

type Cfg struct {
	// Server configuration
	Host string
	Port string

	// Upstream feed configuration
	SourceURL    string
	FetchTimeout int
	UserAgent    string

	// Conversion configuration
	RulesFile       string
	DefaultPriority int

	// API configuration
	APIAccessKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
