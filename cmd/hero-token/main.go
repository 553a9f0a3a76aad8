package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	authapp "hero-server/internal/app/auth"
	"hero-server/internal/platform/config"
)

func main() {
	subject := flag.String("sub", "hero-admin", "Token subject")
	ttl := flag.Duration("ttl", 0, "Token lifetime (default: JWT_TTL)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set; the server accepts unauthenticated writes")
		os.Exit(1)
	}
	lifetime := cfg.JWTTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := authapp.NewService(cfg.JWTSecret, lifetime).IssueToken(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(lifetime.Seconds()),
			"subject":      *subject,
		})
		return
	}

	fmt.Printf("Subject:  %s\n", *subject)
	fmt.Printf("Expires:  %s\n", time.Now().Add(lifetime).Format(time.RFC3339))
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Printf("  curl -X POST -H 'Authorization: Bearer %s' http://localhost:8080/v1/heroes\n", token)
}
