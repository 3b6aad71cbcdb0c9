package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host           string `env:"HOST,default=0.0.0.0"`
	Port           int    `env:"PORT,default=5000"`
	GRPCHealthPort int    `env:"GRPC_HEALTH_PORT,default=5001"`
	DebugPort      int    `env:"DEBUG_PORT,default=8081"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	MediaDir       string `env:"MEDIA_DIR,default=./uploads"`
	MediaBaseURL   string `env:"MEDIA_BASE_URL,default=http://localhost:5000/media"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES,default=5242880"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=720h"`
	RequireWSToken    bool          `env:"REQUIRE_WS_TOKEN,default=false"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS,default=*"`

	MaxMessageSize    int64   `env:"MAX_MESSAGE_SIZE,default=65536"`
	InboundBufferSize int     `env:"INBOUND_BUFFER_SIZE,default=64"`
	SendBufferSize    int     `env:"SEND_BUFFER_SIZE,default=256"`
	RateLimitRPS      float64 `env:"RATE_LIMIT_RPS,default=20"`
	RateLimitBurst    int     `env:"RATE_LIMIT_BURST,default=40"`

	ModerationEnabled bool   `env:"MODERATION_ENABLED,default=true"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`

	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=2s"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
