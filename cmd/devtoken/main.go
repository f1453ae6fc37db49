package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"styleai/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	var (
		subFlag    string
		localeFlag string
		ttlFlag    time.Duration
	)
	flag.StringVar(&subFlag, "sub", "dev-user", "User id placed in the sub claim")
	flag.StringVar(&localeFlag, "locale", "", "Optional locale claim (en or id)")
	flag.DurationVar(&ttlFlag, "ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}
	sub := strings.TrimSpace(subFlag)
	if sub == "" {
		fmt.Fprintln(os.Stderr, "-sub must not be empty")
		os.Exit(1)
	}

	now := time.Now()
	token, err := middleware.SignJWT(secret, middleware.TokenClaims{
		Sub:    sub,
		Locale: localeFlag,
		Iat:    now.Unix(),
		Exp:    now.Add(ttlFlag).Unix(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
