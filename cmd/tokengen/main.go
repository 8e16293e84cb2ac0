// Package main provides a CLI tool for generating dev credentials for the
// didgate API: organization bearer tokens and key material for local config.
// Tokens use the dev signing key and will NOT work in production.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"didgate/internal/organization/token"
	"didgate/internal/platform/config"
	id "didgate/pkg/domain"
)

const defaultTokenTTL = 15 * time.Minute

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	orgCmd := flag.NewFlagSet("org", flag.ExitOnError)
	orgID := orgCmd.String("org-id", "OrgX", "Organization ID the token is issued to")
	orgKey := orgCmd.String("key", config.DevSigningKey, "HS256 signing key (JWT_SIGNING_KEY)")
	orgTTL := orgCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	orgJSON := orgCmd.Bool("json", false, "Output as JSON")

	keysCmd := flag.NewFlagSet("keys", flag.ExitOnError)
	keysJSON := keysCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "org":
		orgCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateOrgToken(*orgID, *orgKey, *orgTTL, *orgJSON)
	case "keys":
		keysCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateKeys(*keysJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate dev credentials for didgate

WARNING: Tokens use the dev signing key and will NOT work in production.
         Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  org       Generate an organization bearer token for /gateway routes
  keys      Generate ISSUER_SEED and WALLET_KEY values

Examples:
  # Token for OrgX with defaults
  tokengen org

  # Token for another organization with a longer TTL
  tokengen org -org-id OrgY -ttl 1h

  # Fresh key material for a local .env
  tokengen keys

Use "tokengen <command> -h" for more information about a command.`)
}

func generateOrgToken(rawOrg, signingKey string, ttl time.Duration, jsonOutput bool) {
	org, err := id.ParseOrganizationID(rawOrg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid org-id: %v\n", err)
		os.Exit(1)
	}

	svc := token.NewService(signingKey, config.DefaultTokenIssuer, config.DefaultTokenAudience, ttl)
	tok, jti, err := svc.Generate(context.Background(), org)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     tok,
			Type:      "access_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"org_id": org.String(),
				"iss":    config.DefaultTokenIssuer,
				"aud":    config.DefaultTokenAudience,
				"jti":    jti,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Organization Token (JWT)")
	fmt.Println("========================")
	fmt.Printf("Organization: %s\n", org)
	fmt.Printf("Expires In:   %s\n", ttl)
	fmt.Printf("JTI:          %s\n", jti)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(tok)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/gateway/subjects/<did>")
}

func generateKeys(jsonOutput bool) {
	seed := randomHex(32)
	walletKey := randomHex(32)

	if jsonOutput {
		printJSON(map[string]string{
			"ISSUER_SEED": seed,
			"WALLET_KEY":  walletKey,
		})
		return
	}
	fmt.Printf("ISSUER_SEED=%s\n", seed)
	fmt.Printf("WALLET_KEY=%s\n", walletKey)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading randomness: %v\n", err)
		os.Exit(1)
	}
	return hex.EncodeToString(b)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
