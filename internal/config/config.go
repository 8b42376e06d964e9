package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// WhisperModels lists the supported Whisper model sizes, smallest first.
var WhisperModels = []string{"tiny", "base", "small", "medium", "large"}

// Default configuration values.
const (
	// DefaultWhisperModel is the model size used when none is requested
	DefaultWhisperModel = "base"
	// DefaultTokenFile is the connector env file holding the HuggingFace token
	DefaultTokenFile = "../memory/connectors/huggingface/.env"
	// DefaultPythonPath is the interpreter that runs the model helpers
	DefaultPythonPath = "python3"
	// DefaultFFprobePath is the binary used to read audio durations
	DefaultFFprobePath = "ffprobe"
	// DefaultWhisperURL is the base URL of the speech sidecar
	DefaultWhisperURL = "http://localhost:8387"
	// DefaultPyannoteURL is the base URL of the diarization sidecar
	DefaultPyannoteURL = "http://localhost:8388"
	// DefaultWhisperBackend runs openai-whisper through the local helper
	DefaultWhisperBackend = "whisper"
	// DefaultPyannoteBackend runs pyannote.audio through the local helper
	DefaultPyannoteBackend = "pyannote"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

// Options is a validated snapshot of the settings a transcription run needs.
type Options struct {
	Model                string        `mapstructure:"whisper.model" validate:"oneof=tiny base small medium large"`
	Language             string        `mapstructure:"whisper.language" validate:"required"`
	TranscriptionBackend string        `mapstructure:"transcription.backend" validate:"oneof=whisper http"`
	TranscriptionURL     string        `mapstructure:"transcription.url" validate:"omitempty,url"`
	TranscriptionTimeout time.Duration `mapstructure:"transcription.timeout" validate:"gte=0"`
	Diarize              bool          `mapstructure:"diarization.enabled"`
	Speakers             int           `mapstructure:"diarization.speakers" validate:"gte=0"`
	DiarizationBackend   string        `mapstructure:"diarization.backend" validate:"oneof=pyannote http"`
	DiarizationURL       string        `mapstructure:"diarization.url" validate:"omitempty,url"`
	DiarizationTimeout   time.Duration `mapstructure:"diarization.timeout" validate:"gte=0"`
	PythonPath           string        `mapstructure:"python.path" validate:"required"`
	DevicePreference     string        `mapstructure:"device.preference" validate:"oneof=auto cpu cuda"`
	LogLevel             string        `mapstructure:"log.level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat            string        `mapstructure:"log.format" validate:"oneof=console json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("whisper.model", DefaultWhisperModel)
	v.SetDefault("whisper.language", "en")
	v.SetDefault("transcription.backend", DefaultWhisperBackend)
	v.SetDefault("transcription.url", DefaultWhisperURL)
	v.SetDefault("transcription.timeout", "0s")
	v.SetDefault("diarization.enabled", false)
	v.SetDefault("diarization.speakers", 0)
	v.SetDefault("diarization.backend", DefaultPyannoteBackend)
	v.SetDefault("diarization.url", DefaultPyannoteURL)
	v.SetDefault("diarization.timeout", "0s")
	v.SetDefault("diarization.token_file", DefaultTokenFile)
	v.SetDefault("python.path", DefaultPythonPath)
	v.SetDefault("ffprobe.path", DefaultFFprobePath)
	v.SetDefault("device.preference", "auto")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("debug", false)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("TRANSCRIBER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map specific environment variables
	v.BindEnv("whisper.model", "TRANSCRIBER_WHISPER_MODEL", "WHISPER_MODEL")
	v.BindEnv("diarization.token", "TRANSCRIBER_DIARIZATION_TOKEN", "HUGGINGFACE_API_TOKEN", "HF_TOKEN")
	v.BindEnv("python.path", "TRANSCRIBER_PYTHON_PATH", "PYTHON_PATH")
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file.
// Environment variables still override values from the file.
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	return &Configuration{viper: v}, nil
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"model":      "whisper.model",
	"diarize":    "diarization.enabled",
	"speakers":   "diarization.speakers",
	"log-level":  "log.level",
	"log-format": "log.format",
	"debug":      "debug",
}

// BindFlags binds the known CLI flags present in fs. Explicitly set flags
// take precedence over environment and config file values.
func (c *Configuration) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := c.viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// GetWhisperModel returns the Whisper model size
func (c *Configuration) GetWhisperModel() string {
	return strings.ToLower(strings.TrimSpace(c.viper.GetString("whisper.model")))
}

// GetWhisperLanguage returns the language passed to the speech engine
func (c *Configuration) GetWhisperLanguage() string {
	return c.viper.GetString("whisper.language")
}

// GetTranscriptionBackend returns the speech backend name (whisper or http)
func (c *Configuration) GetTranscriptionBackend() string {
	return strings.ToLower(c.viper.GetString("transcription.backend"))
}

// GetTranscriptionURL returns the base URL of the speech sidecar
func (c *Configuration) GetTranscriptionURL() string {
	return c.viper.GetString("transcription.url")
}

// GetTranscriptionTimeout returns the HTTP timeout for the speech sidecar, 0 for none
func (c *Configuration) GetTranscriptionTimeout() time.Duration {
	return c.viper.GetDuration("transcription.timeout")
}

// GetDiarizationEnabled reports whether speaker diarization was requested
func (c *Configuration) GetDiarizationEnabled() bool {
	return c.viper.GetBool("diarization.enabled")
}

// GetDiarizationSpeakers returns the expected speaker count, 0 for auto-detect
func (c *Configuration) GetDiarizationSpeakers() int {
	return c.viper.GetInt("diarization.speakers")
}

// GetDiarizationBackend returns the diarization backend name (pyannote or http)
func (c *Configuration) GetDiarizationBackend() string {
	return strings.ToLower(c.viper.GetString("diarization.backend"))
}

// GetDiarizationURL returns the base URL of the diarization sidecar
func (c *Configuration) GetDiarizationURL() string {
	return c.viper.GetString("diarization.url")
}

// GetDiarizationTimeout returns the HTTP timeout for the diarization sidecar, 0 for none
func (c *Configuration) GetDiarizationTimeout() time.Duration {
	return c.viper.GetDuration("diarization.timeout")
}

// GetDiarizationToken returns a token supplied directly through config or environment
func (c *Configuration) GetDiarizationToken() string {
	return strings.TrimSpace(c.viper.GetString("diarization.token"))
}

// GetDiarizationTokenFile returns the connector env file holding the HuggingFace token
func (c *Configuration) GetDiarizationTokenFile() string {
	return c.viper.GetString("diarization.token_file")
}

// GetPythonPath returns the interpreter used for the local model helpers
func (c *Configuration) GetPythonPath() string {
	return c.viper.GetString("python.path")
}

// GetFFprobePath returns the ffprobe binary used to read the audio duration
func (c *Configuration) GetFFprobePath() string {
	return c.viper.GetString("ffprobe.path")
}

// GetDevicePreference returns auto, cpu or cuda
func (c *Configuration) GetDevicePreference() string {
	return strings.ToLower(c.viper.GetString("device.preference"))
}

// GetLogLevel returns the configured log level
func (c *Configuration) GetLogLevel() string {
	return strings.ToLower(c.viper.GetString("log.level"))
}

// GetLogFormat returns console or json
func (c *Configuration) GetLogFormat() string {
	return strings.ToLower(strings.TrimSpace(c.viper.GetString("log.format")))
}

// GetDebugMode returns whether debug mode is enabled
func (c *Configuration) GetDebugMode() bool {
	return c.viper.GetBool("debug")
}

// Set overrides a configuration key, taking precedence over every other source
func (c *Configuration) Set(key string, value any) {
	c.viper.Set(key, value)
}

// Options returns a snapshot of the run settings.
func (c *Configuration) Options() Options {
	return Options{
		Model:                c.GetWhisperModel(),
		Language:             c.GetWhisperLanguage(),
		TranscriptionBackend: c.GetTranscriptionBackend(),
		TranscriptionURL:     c.GetTranscriptionURL(),
		TranscriptionTimeout: c.GetTranscriptionTimeout(),
		Diarize:              c.GetDiarizationEnabled(),
		Speakers:             c.GetDiarizationSpeakers(),
		DiarizationBackend:   c.GetDiarizationBackend(),
		DiarizationURL:       c.GetDiarizationURL(),
		DiarizationTimeout:   c.GetDiarizationTimeout(),
		PythonPath:           c.GetPythonPath(),
		DevicePreference:     c.GetDevicePreference(),
		LogLevel:             c.GetLogLevel(),
		LogFormat:            c.GetLogFormat(),
	}
}

// Validate checks the run settings and reports every invalid key at once.
func (c *Configuration) Validate() error {
	return c.Options().Validate()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report configuration keys rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("mapstructure"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate checks the snapshot against its struct tags.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate configuration: %w", err)
	}

	var combined error
	for _, fe := range validationErrors {
		combined = multierr.Append(combined, fieldError(fe))
	}
	return combined
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("invalid %s %q: must be one of %s", fe.Field(), fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Errorf("invalid %s %v: must be at least %s", fe.Field(), fe.Value(), fe.Param())
	case "required":
		return fmt.Errorf("invalid %s: value is required", fe.Field())
	case "url":
		return fmt.Errorf("invalid %s %q: must be a URL", fe.Field(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Errorf("invalid %s: failed %s check", fe.Field(), fe.Tag())
	}
}
