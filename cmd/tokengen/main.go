// Package main generates development tokens and production secrets.
// Tokens are signed with the secrets from the environment, or the development
// defaults when unset, so they only work against a server sharing them.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"smartparking/internal/auth/token"
	"smartparking/internal/platform/config"
	id "smartparking/pkg/domain"
	"smartparking/pkg/secrets"
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresAt time.Time         `json:"expires_at"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage,omitempty"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "access", "refresh":
		issueCmd(token.Kind(os.Args[1]), os.Args[2:])
	case "secret":
		secretCmd(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - development tokens and secrets for smartparking

Usage:
  tokengen <command> [flags]

Commands:
  access    Issue an access token
  refresh   Issue a refresh token
  secret    Print a random secret for ACCESS_TOKEN_SECRET, REFRESH_TOKEN_SECRET or ADMIN_API_TOKEN

Examples:
  tokengen access -tenant-id 7b0e... -email admin@acme.test
  tokengen refresh -ttl 24h -json
  tokengen secret -n 64

Use "tokengen <command> -h" for more information about a command.`)
}

func issueCmd(kind token.Kind, args []string) {
	fs := flag.NewFlagSet(string(kind), flag.ExitOnError)
	adminID := fs.String("admin-id", "", "Administrator ID (UUID). Generated if empty.")
	tenantID := fs.String("tenant-id", "", "Tenant ID (UUID). Generated if empty.")
	email := fs.String("email", "admin@example.test", "Administrator email")
	ttl := fs.Duration("ttl", 0, "Token lifetime. Defaults to the configured TTL.")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Parse(args) //nolint:errcheck // ExitOnError

	cfg, err := config.FromEnv()
	if err != nil {
		fail("load config: %v", err)
	}
	tcfg := token.Config{
		AccessSecret:  cfg.Auth.AccessTokenSecret,
		RefreshSecret: cfg.Auth.RefreshTokenSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
	}
	if *ttl > 0 {
		tcfg.AccessTTL, tcfg.RefreshTTL = *ttl, *ttl
	}
	svc, err := token.New(tcfg)
	if err != nil {
		fail("token service: %v", err)
	}

	sub := token.Subject{
		AdminID:  parseOrGenerate(*adminID, "admin-id", id.ParseAdminID, id.NewAdminID),
		TenantID: parseOrGenerate(*tenantID, "tenant-id", id.ParseTenantID, id.NewTenantID),
		Email:    *email,
	}
	issued, err := svc.Issue(sub, kind)
	if err != nil {
		fail("issue token: %v", err)
	}

	if *jsonOut {
		printJSON(tokenOutput{
			Token:     issued.Token,
			Type:      string(kind) + "_token",
			ExpiresAt: issued.ExpiresAt,
			Claims: map[string]any{
				"sub":       sub.AdminID.String(),
				"tenant_id": sub.TenantID.String(),
				"email":     sub.Email,
				"jti":       issued.ID,
			},
			Usage: map[string]string{"environment": cfg.Environment},
		})
		return
	}
	fmt.Printf("%s token\n", kind)
	fmt.Printf("Admin ID:   %s\n", sub.AdminID)
	fmt.Printf("Tenant ID:  %s\n", sub.TenantID)
	fmt.Printf("Expires At: %s\n", issued.ExpiresAt.Format(time.RFC3339))
	fmt.Printf("JTI:        %s\n\n", issued.ID)
	fmt.Println(issued.Token)
	if kind == token.KindAccess {
		fmt.Println()
		fmt.Println("  curl -H \"Authorization: Bearer <token>\" -H \"X-Tenant-ID: <slug>\" http://localhost:8080/api/admin/me")
	}
}

func secretCmd(args []string) {
	fs := flag.NewFlagSet("secret", flag.ExitOnError)
	n := fs.Int("n", secrets.DefaultLength, "Random bytes before encoding")
	fs.Parse(args) //nolint:errcheck // ExitOnError

	s, err := secrets.GenerateN(*n)
	if err != nil {
		fail("generate secret: %v", err)
	}
	fmt.Println(s)
}

func parseOrGenerate[T any](input, field string, parse func(string) (T, error), generate func() T) T {
	if input == "" {
		return generate()
	}
	v, err := parse(input)
	if err != nil {
		fail("invalid %s: %s", field, input)
	}
	return v
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("encode JSON: %v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
