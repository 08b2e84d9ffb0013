package config

const (
	defaultDataDir        = "~/.local/share/cliprate/data"
	defaultLogDir         = "~/.local/share/cliprate/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultBaseURL        = "https://api.telegram.org"
	defaultPollTimeout    = 30
	defaultRequestTimeout = 60
	defaultVideosPerTheme = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Telegram: Telegram{
			BaseURL:        defaultBaseURL,
			PollTimeout:    defaultPollTimeout,
			RequestTimeout: defaultRequestTimeout,
		},
		Survey: Survey{
			VideosPerTheme: defaultVideosPerTheme,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
