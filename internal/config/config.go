package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig `mapstructure:"server"`
	GenAI    GenAIConfig  `mapstructure:"genai"`
	Audio    AudioConfig  `mapstructure:"audio"`
	LogLevel string       `mapstructure:"log_level"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	MaxAudioBytes   int    `mapstructure:"max_audio_bytes"`
}

type GenAIConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	TextModel   string `mapstructure:"text_model"`
	SpeechModel string `mapstructure:"speech_model"`
	Voice       string `mapstructure:"voice"`
	Retries     int    `mapstructure:"retries"`
	Timeout     int    `mapstructure:"timeout"`

	// RateLimit caps provider requests per second. Zero disables it.
	RateLimit         float64 `mapstructure:"rate_limit"`
	RateBurst         int     `mapstructure:"rate_burst"`
	SpeechParallelism int     `mapstructure:"speech_parallelism"`
}

// AudioConfig describes raw PCM accepted by POST /audio/wav and `wav encode`
// when the caller does not say otherwise.
type AudioConfig struct {
	Channels   int `mapstructure:"channels"`
	SampleRate int `mapstructure:"sample_rate"`
	BitDepth   int `mapstructure:"bit_depth"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	// EnvFile is a dotenv file loaded before environment lookup. An empty
	// value tries ".env" and ignores it when absent.
	EnvFile  string
	Defaults Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			RequestTimeout:  60,
			ShutdownTimeout: 30,
			MaxTextBytes:    8192,
			MaxAudioBytes:   32 << 20,
		},
		GenAI: GenAIConfig{
			Provider:    ProviderGemini,
			APIKey:      "",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			TextModel:   "gemini-2.0-flash",
			SpeechModel: "gemini-2.5-flash-preview-tts",
			Voice:       "Algenib",
			Retries:     2,
			Timeout:     60,

			RateLimit:         0,
			RateBurst:         4,
			SpeechParallelism: 4,
		},
		Audio: AudioConfig{
			Channels:   1,
			SampleRate: 24000,
			BitDepth:   16,
		},
		LogLevel: "info",
	}
}

// flagKeys maps every registered flag to its nested configuration key.
var flagKeys = map[string]string{
	"server-listen-addr":      "server.listen_addr",
	"workers":                 "server.workers",
	"server-request-timeout":  "server.request_timeout",
	"server-shutdown-timeout": "server.shutdown_timeout",
	"server-max-text-bytes":   "server.max_text_bytes",
	"server-max-audio-bytes":  "server.max_audio_bytes",
	"provider":                "genai.provider",
	"genai-api-key":           "genai.api_key",
	"genai-base-url":          "genai.base_url",
	"genai-text-model":        "genai.text_model",
	"genai-speech-model":      "genai.speech_model",
	"voice":                   "genai.voice",
	"genai-retries":           "genai.retries",
	"genai-timeout":           "genai.timeout",
	"genai-rate-limit":        "genai.rate_limit",
	"genai-rate-burst":        "genai.rate_burst",
	"speech-parallelism":      "genai.speech_parallelism",
	"audio-channels":          "audio.channels",
	"audio-sample-rate":       "audio.sample_rate",
	"audio-bit-depth":         "audio.bit_depth",
	"log-level":               "log_level",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent flow executions")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request flow deadline in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum accepted text field size in bytes")
	fs.Int("server-max-audio-bytes", defaults.Server.MaxAudioBytes, "Maximum accepted raw PCM body size in bytes")
	fs.String("provider", defaults.GenAI.Provider, "Generative AI provider (gemini|offline)")
	fs.String("genai-api-key", defaults.GenAI.APIKey, "Gemini API key")
	fs.String("genai-base-url", defaults.GenAI.BaseURL, "Gemini API base URL")
	fs.String("genai-text-model", defaults.GenAI.TextModel, "Model used for text generation")
	fs.String("genai-speech-model", defaults.GenAI.SpeechModel, "Model used for speech generation")
	fs.String("voice", defaults.GenAI.Voice, "Prebuilt voice name for speech generation")
	fs.Int("genai-retries", defaults.GenAI.Retries, "Retries for transient provider errors")
	fs.Int("genai-timeout", defaults.GenAI.Timeout, "Provider HTTP timeout in seconds")
	fs.Float64("genai-rate-limit", defaults.GenAI.RateLimit, "Provider requests per second (0 = unlimited)")
	fs.Int("genai-rate-burst", defaults.GenAI.RateBurst, "Provider request burst size")
	fs.Int("speech-parallelism", defaults.GenAI.SpeechParallelism, "Concurrent speech requests per utterance")
	fs.Int("audio-channels", defaults.Audio.Channels, "Default channel count for raw PCM input")
	fs.Int("audio-sample-rate", defaults.Audio.SampleRate, "Default sample rate for raw PCM input")
	fs.Int("audio-bit-depth", defaults.Audio.BitDepth, "Default bit depth for raw PCM input")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("CONCEPTCOMPASS")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("genai.api_key", "CONCEPTCOMPASS_GENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind api key env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("conceptcompass")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate reports configuration that cannot serve any flow.
func (c Config) Validate() error {
	provider, err := NormalizeProvider(c.GenAI.Provider)
	if err != nil {
		return err
	}
	if provider == ProviderGemini && strings.TrimSpace(c.GenAI.APIKey) == "" {
		return errors.New("gemini provider requires an API key (set GEMINI_API_KEY or --genai-api-key)")
	}
	if c.GenAI.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit %v", c.GenAI.RateLimit)
	}
	if c.Audio.Channels < 1 || c.Audio.SampleRate < 1 || c.Audio.BitDepth < 8 || c.Audio.BitDepth%8 != 0 {
		return fmt.Errorf("invalid audio defaults: channels=%d sample_rate=%d bit_depth=%d",
			c.Audio.Channels, c.Audio.SampleRate, c.Audio.BitDepth)
	}
	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.max_audio_bytes", c.Server.MaxAudioBytes)
	v.SetDefault("genai.provider", c.GenAI.Provider)
	v.SetDefault("genai.api_key", c.GenAI.APIKey)
	v.SetDefault("genai.base_url", c.GenAI.BaseURL)
	v.SetDefault("genai.text_model", c.GenAI.TextModel)
	v.SetDefault("genai.speech_model", c.GenAI.SpeechModel)
	v.SetDefault("genai.voice", c.GenAI.Voice)
	v.SetDefault("genai.retries", c.GenAI.Retries)
	v.SetDefault("genai.timeout", c.GenAI.Timeout)
	v.SetDefault("genai.rate_limit", c.GenAI.RateLimit)
	v.SetDefault("genai.rate_burst", c.GenAI.RateBurst)
	v.SetDefault("genai.speech_parallelism", c.GenAI.SpeechParallelism)
	v.SetDefault("audio.channels", c.Audio.Channels)
	v.SetDefault("audio.sample_rate", c.Audio.SampleRate)
	v.SetDefault("audio.bit_depth", c.Audio.BitDepth)
	v.SetDefault("log_level", c.LogLevel)
}
