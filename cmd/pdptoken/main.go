// Command pdptoken mints bearer tokens for decision API callers using the
// node's JWT_SIGNING_KEY.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "pdpnode/internal/jwt_token"
	"pdpnode/internal/platform/config"
)

func main() {
	subject := flag.String("subject", "", "calling component, e.g. the onapName")
	scope := flag.String("scope", "decision", "token scope")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.FromEnv()
	if cfg.Server.JWTSigningKey == "" {
		fmt.Fprintln(os.Stderr, "JWT_SIGNING_KEY is not set")
		os.Exit(2)
	}
	if *subject == "" {
		fmt.Fprintln(os.Stderr, "-subject is required")
		os.Exit(2)
	}

	svc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, jwttoken.Issuer, jwttoken.Audience)
	token, err := svc.GenerateAccessToken(*subject, *scope, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
