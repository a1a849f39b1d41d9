// Command admintoken mints the bearer token required by the
// administrative clear action.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/Netflix/go-env"

	"github.com/swizkhalifaa/Distributed-System-Project-C/auth"
	"github.com/swizkhalifaa/Distributed-System-Project-C/internal"
)

func main() {
	subject := flag.String("subject", "operator", "Operator name recorded in the token")
	duration := flag.Duration("duration", 0, "Token lifetime; defaults to ADMIN_TOKEN_DURATION")
	flag.Parse()

	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("config error: %v", err)
	}

	lifetime := *duration
	if lifetime <= 0 {
		lifetime = config.AdminTokenDuration
	}
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}

	token, err := auth.GenerateAdminToken([]byte(config.AdminTokenSecret), *subject, lifetime)
	if err != nil {
		log.Fatalf("token generation failed: %v", err)
	}
	fmt.Println(token)
}
