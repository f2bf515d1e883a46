package config

const (
	defaultSimilarity      = 70.0
	defaultSleepSeconds    = 10
	defaultNumResults      = 5
	defaultMinSim          = 80
	defaultSauceNAOBaseURL = "https://saucenao.com"
	defaultDanbooruBaseURL = "https://danbooru.donmai.us"
	defaultProxyPort       = 7890
	defaultOutputDir       = "."
	defaultLogFormat       = ""
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults. The log
// format is left empty so the CLI can pick console or json based on the
// terminal.
func Default() Config {
	return Config{
		Search: Search{
			Similarity:   defaultSimilarity,
			SleepSeconds: defaultSleepSeconds,
			NumResults:   defaultNumResults,
			MinSim:       defaultMinSim,
		},
		SauceNAO: SauceNAO{
			BaseURL: defaultSauceNAOBaseURL,
		},
		Danbooru: Danbooru{
			BaseURL: defaultDanbooruBaseURL,
		},
		Proxy: Proxy{
			Port: defaultProxyPort,
		},
		Output: Output{
			Dir: defaultOutputDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
