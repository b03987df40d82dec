package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// LogConfig holds configuration for the global logger
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"json"`
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"LOG_FILE_PATH" default:"logs/ivr.log"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"rfc3339"`
}

// ServerConfig holds the webhook listener settings
type ServerConfig struct {
	Addr            string        `envconfig:"IVR_ADDR" default:":8080"`
	PublicBaseURL   string        `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// SessionConfig selects and tunes the session store backend
type SessionConfig struct {
	Backend       string        `envconfig:"SESSION_BACKEND" default:"memory"` // memory | redis
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	MaxEntries    int           `envconfig:"SESSION_MAX_ENTRIES" default:"10000"`
	RedisURL      string        `envconfig:"REDIS_URL"`
	KeyPrefix     string        `envconfig:"SESSION_KEY_PREFIX" default:"ivr:session:"`
	SweepSchedule string        `envconfig:"SESSION_SWEEP_SCHEDULE" default:"@every 1m"`
}

// RecordServiceConfig points at the backend record lookup API
type RecordServiceConfig struct {
	BaseURL     string        `envconfig:"RECORD_API_URL"`
	Token       string        `envconfig:"RECORD_API_TOKEN"`
	Timeout     time.Duration `envconfig:"RECORD_API_TIMEOUT" default:"5s"`
	FixturePath string        `envconfig:"RECORD_FIXTURE_PATH"`
}

// TelephonyConfig holds call-control behaviour toggles
type TelephonyConfig struct {
	AccountSID           string `envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken            string `envconfig:"TWILIO_AUTH_TOKEN"`
	Voice                string `envconfig:"TTS_VOICE" default:"Polly.Mia"`
	Language             string `envconfig:"SPEECH_LANGUAGE" default:"es-MX"`
	DigitTerminator      string `envconfig:"DIGIT_TERMINATOR" default:"#"`
	GatherTimeout        int    `envconfig:"GATHER_TIMEOUT_SECONDS" default:"6"`
	TransferEnabled      bool   `envconfig:"AGENT_TRANSFER_ENABLED" default:"false"`
	AgentNumber          string `envconfig:"AGENT_NUMBER"`
	RecordMaxLength      int    `envconfig:"RECORD_MAX_LENGTH_SECONDS" default:"15"`
	RecordSilenceTimeout int    `envconfig:"RECORD_SILENCE_TIMEOUT_SECONDS" default:"3"`
}

// LLMConfig holds configuration for the extraction chat model
type LLMConfig struct {
	Provider    string        `envconfig:"LLM_PROVIDER" default:"openai"` // openai | deepseek | ollama | ark | none
	Model       string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	APIKey      string        `envconfig:"LLM_API_KEY"`
	BaseURL     string        `envconfig:"LLM_BASE_URL"`
	MaxTokens   int           `envconfig:"LLM_MAX_TOKENS" default:"256"`
	Temperature float64       `envconfig:"LLM_TEMPERATURE" default:"0"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"8s"`
}

// TranscriptionConfig holds configuration for the speech-to-text service
type TranscriptionConfig struct {
	APIKey   string        `envconfig:"TRANSCRIPTION_API_KEY"`
	BaseURL  string        `envconfig:"TRANSCRIPTION_BASE_URL"`
	Model    string        `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-1"`
	Language string        `envconfig:"TRANSCRIPTION_LANGUAGE" default:"es"`
	Timeout  time.Duration `envconfig:"TRANSCRIPTION_TIMEOUT" default:"10s"`
}

// QuotationConfig tunes the multi-turn quote pipeline
type QuotationConfig struct {
	MaxPolls      int           `envconfig:"QUOTE_MAX_POLLS" default:"20"`
	StepTimeout   time.Duration `envconfig:"QUOTE_STEP_TIMEOUT" default:"20s"`
	ThreadTurns   int           `envconfig:"QUOTE_THREAD_TURNS" default:"6"`
	DefaultAmount float64       `envconfig:"QUOTE_DEFAULT_AMOUNT" default:"1500"`
	Currency      string        `envconfig:"QUOTE_CURRENCY" default:"MXN"`
}
