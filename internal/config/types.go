package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Content  ContentConfig  `json:"content"`
	LLM      LLMConfig      `json:"llm"`
	News     NewsConfig     `json:"news"`
	Calendar CalendarConfig `json:"calendar"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// AdminUserIDs is the fixed allow-list for approval operations.
	AdminUserIDs []int64 `json:"admin_user_ids"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the SQLite persistence layer.
type StorageConfig struct {
	Path string `json:"path"`
	// BusyTimeout is a Go duration string; 0 keeps the driver default.
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// ContentConfig controls the content lifecycle jobs.
//
// All *_every fields are Go duration strings.
type ContentConfig struct {
	// Timezone is the IANA zone the pre-race window is evaluated in.
	Timezone string `json:"timezone,omitempty"`
	// Languages lists the content/bingo language variants to produce.
	Languages []string `json:"languages,omitempty"`

	PreCheckEvery  string `json:"pre_check_every,omitempty"`  // default "10m"
	PostCheckEvery string `json:"post_check_every,omitempty"` // default "30m"

	// PendingPageSize caps admin pending listings. Default 10.
	PendingPageSize int `json:"pending_page_size,omitempty"`
}

// LLMConfig points at an OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model,omitempty"`    // default "gpt-4o-mini"
	BaseURL string `json:"base_url,omitempty"` // default "https://api.openai.com/v1"
	Timeout string `json:"timeout,omitempty"`  // default "30s"
}

type NewsConfig struct {
	// Feeds is a list of RSS/Atom feed URLs.
	Feeds []string `json:"feeds,omitempty"`
	Limit int      `json:"limit,omitempty"` // default 10
}

type CalendarConfig struct {
	// SourceURL serves the season calendar as JSON.
	SourceURL    string `json:"source_url,omitempty"`
	RefreshEvery string `json:"refresh_every,omitempty"` // default "6h"
}

// DefaultLanguages applies when content.languages is omitted.
var DefaultLanguages = []string{"ru", "en"}

// Languages returns the configured language list or the default.
func (c ContentConfig) LanguagesOrDefault() []string {
	if len(c.Languages) == 0 {
		return append([]string(nil), DefaultLanguages...)
	}
	return c.Languages
}

// PageSizeOrDefault returns the pending listing cap.
func (c ContentConfig) PageSizeOrDefault() int {
	if c.PendingPageSize <= 0 {
		return 10
	}
	return c.PendingPageSize
}
