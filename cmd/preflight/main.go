// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	env := func(names ...string) (string, string) {
		for _, n := range names {
			if v := strings.TrimSpace(os.Getenv(n)); v != "" {
				return n, v
			}
		}
		return names[0], ""
	}

	urlName, base := env("SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL")
	keyName, anon := env("SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY")
	_, admin := env("ADMIN_API_KEYS")
	_, pub := env("PUBLIC_API_KEYS")
	_, apiAddr := env("API_ADDR")
	_, db := env("DATABASE_URL")
	_, allowed := env("ALLOWED_ORIGINS")
	_, slack := env("SLACK_WEBHOOK_URL")

	switch u, err := url.Parse(base); {
	case base == "":
		fail("SUPABASE_URL is empty (the checks cannot run).")
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		fail(urlName + " is not an http(s) URL: " + base)
	default:
		ok(urlName + "=" + base)
	}
	if anon == "" {
		fail("SUPABASE_ANON_KEY is empty (every request will be rejected).")
	} else {
		ok(keyName + " present")
	}

	if admin == "" {
		warn("ADMIN_API_KEYS is empty (POST /api/checks is open to anyone).")
	}
	if pub == "" && admin == "" {
		warn("PUBLIC_API_KEYS and ADMIN_API_KEYS empty (report routes are unauthenticated).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if apiAddr == "" {
		warn("API_ADDR is empty; the API will bind 127.0.0.1:8080.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	if db == "" {
		warn("DATABASE_URL empty, reports are kept in memory and the schema inspector is off.")
	} else {
		ok("DATABASE_URL present")
	}

	if allowed == "" {
		warn("ALLOWED_ORIGINS empty, CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + allowed)
	}

	if slack == "" {
		warn("SLACK_WEBHOOK_URL empty, health alerts go to the log only.")
	} else {
		ok("SLACK_WEBHOOK_URL present")
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
