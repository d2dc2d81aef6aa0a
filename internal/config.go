package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=localhost"`
	Port int    `env:"PORT,default=8080"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	UploadDir      string `env:"UPLOAD_DIR,default=./uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES,default=5242880"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	OTPTTL            time.Duration `env:"OTP_TTL,default=10m"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	PresenceBufferSize   int           `env:"PRESENCE_BUFFER_SIZE,default=1024"`
	MinMessageInterval   time.Duration `env:"MIN_MESSAGE_INTERVAL,default=300ms"`
	EnforceMembership    bool          `env:"ENFORCE_MEMBERSHIP,default=false"`
	CharReplacement      string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`

	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=30s"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`

	// DebugPort serves the read-only storage inspector when non-zero.
	DebugPort int `env:"DEBUG_PORT,default=0"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
