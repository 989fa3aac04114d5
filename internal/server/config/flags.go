package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/hoaboard/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line
// flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-s string     PII secret key
//	-k string     session JWT HMAC secret
//	-l duration   session validity (e.g., "24h")
//	-t duration   recovery/validation token validity (e.g., "12h")
//	-i duration   invitation token validity (e.g., "720h")
//	-o string     comma-separated CORS origins
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-k", "-l", "-t", "-i", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "PII secret key")
	fs.StringVar(&config.SessionSecret, "k", config.SessionSecret, "session signing secret")

	fs.DurationVar(&config.SessionValidity, "l", config.SessionValidity, "session validity")
	fs.DurationVar(&config.TokenValidity, "t", config.TokenValidity, "token validity")
	fs.DurationVar(&config.InvitationValidity, "i", config.InvitationValidity, "invitation validity")

	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins (comma-separated)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AllowedOrigins = splitOrigins(*origins)
}
