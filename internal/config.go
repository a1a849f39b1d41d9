package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,required=true"`
	Port                 int           `env:"PORT,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,required=true"`
	ModerationWords      string        `env:"MODERATION_WORDS"`
	CharReplacement      string        `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	AdminTokenSecret     string        `env:"ADMIN_TOKEN_SECRET,required=true"`
	AdminTokenDuration   time.Duration `env:"ADMIN_TOKEN_DURATION,required=true"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,required=true"`
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

// CensoredWords splits the comma-separated moderation list, dropping
// blanks. An empty variable disables moderation.
func CensoredWords(csv string) []string {
	var words []string
	for _, word := range strings.Split(csv, ",") {
		word = strings.TrimSpace(word)
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}
