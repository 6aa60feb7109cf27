/*
Dtlsserver starts a devicetree-source language server, speaking LSP over
stdio, with an optional admin HTTP API for inspecting the contexts it's
managing.

Usage:

	dtlsserver [flags]
	dtlsserver [flags] -l [[ADDRESS]:PORT]

The language server itself is always served over stdin/stdout, the
transport every LSP client expects by default. The admin API is only
started if --listen is given.

The flags are:

	-v, --version
		Give the current version of dtls and then exit.

	-l, --listen LISTEN_ADDRESS
		Serve the admin HTTP API on the given address. Must be in
		BIND_ADDRESS:PORT or :PORT format. If not given, will default to the
		value of environment variable DTLS_LISTEN_ADDRESS. If neither is
		given, the admin API is not started.

	-s, --secret ADMIN_SECRET
		Use the given secret to log in to the admin API. If not given, will
		default to the value of environment variable DTLS_ADMIN_SECRET. If
		neither is given and the admin API is being started, a random secret
		is generated and printed once at startup.

	--jwt-secret TOKEN_SECRET
		Use the given secret for signing admin API JWTs. If not given, will
		default to the value of environment variable DTLS_JWT_SECRET, and if
		that is not given, a random secret is generated; in that mode all
		admin API tokens become invalid as soon as the server shuts down.

	--cache DRIVER[:PARAMS]
		Use the given token-cache connection string. DRIVER must be one of:
		inmem, sqlite. inmem has no further params. sqlite needs the path to
		the cache file, such as sqlite:path/to/cache.db. If not given, will
		default to the value of environment variable DTLS_CACHE. If neither
		is given, an in-memory cache is used.

	--verbosity N
		Set the log verbosity passed to the LSP transport's logging backend.
		0 disables logging. Higher values are noisier.
*/
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dkrn/dts-ls/internal/adminapi"
	"github.com/dkrn/dts-ls/internal/dts/context"
	"github.com/dkrn/dts-ls/internal/dts/context/cache"
	"github.com/dkrn/dts-ls/internal/dts/settings"
	"github.com/dkrn/dts-ls/internal/lspserver"
	"github.com/dkrn/dts-ls/internal/util"
	"github.com/dkrn/dts-ls/internal/version"
)

const (
	EnvListen    = "DTLS_LISTEN_ADDRESS"
	EnvSecret    = "DTLS_ADMIN_SECRET"
	EnvJWTSecret = "DTLS_JWT_SECRET"
	EnvCache     = "DTLS_CACHE"
)

var (
	flagVersion   = pflag.BoolP("version", "v", false, "Give the current version of dtlsserver and then exit.")
	flagListen    = pflag.StringP("listen", "l", "", "Serve the admin HTTP API on the given address.")
	flagSecret    = pflag.StringP("secret", "s", "", "Use the given secret to log in to the admin API.")
	flagJWTSecret = pflag.String("jwt-secret", "", "Use the given secret for signing admin API JWTs.")
	flagCache     = pflag.String("cache", "", "Use the given token-cache connection string.")
	flagVerbosity = pflag.Int("verbosity", 0, "Set the LSP transport's log verbosity.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	store, err := openCache()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}

	mgr := context.NewManager(settings.Settings{}, store)

	features := []string{"LSP over stdio"}

	listenAddr := os.Getenv(EnvListen)
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr != "" {
		if err := startAdminAPI(mgr, listenAddr); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
			os.Exit(1)
		}
		features = append(features, "admin API on "+listenAddr)
	}
	log.Printf("INFO  starting dtlsserver %s, serving %s", version.Current, util.MakeTextList(features))

	var logFile *string
	srv := lspserver.NewServer(mgr, *flagVerbosity, logFile)
	if err := srv.RunStdio(); err != nil {
		log.Fatalf("FATAL language server exited: %s", err.Error())
	}
}

func openCache() (cache.Store, error) {
	connStr := os.Getenv(EnvCache)
	if pflag.Lookup("cache").Changed {
		connStr = *flagCache
	}
	if connStr == "" {
		return cache.NewMemory(), nil
	}

	parts := strings.SplitN(connStr, ":", 2)
	switch strings.ToLower(parts[0]) {
	case "inmem":
		return cache.NewMemory(), nil
	case "sqlite":
		if len(parts) != 2 || parts[1] == "" {
			return nil, fmt.Errorf("sqlite cache requires a file path: --cache sqlite:path/to/cache.db")
		}
		return cache.NewSQLite(parts[1])
	default:
		return nil, fmt.Errorf("unsupported cache engine: %q", parts[0])
	}
}

func startAdminAPI(mgr *context.Manager, listenAddr string) error {
	bindParts := strings.SplitN(listenAddr, ":", 2)
	if len(bindParts) != 2 {
		return fmt.Errorf("listen address is not in ADDRESS:PORT or :PORT format")
	}
	if _, err := strconv.Atoi(bindParts[1]); err != nil {
		return fmt.Errorf("%q is not a valid port number", bindParts[1])
	}

	secret := os.Getenv(EnvSecret)
	if pflag.Lookup("secret").Changed {
		secret = *flagSecret
	}
	if secret == "" {
		generated, err := randomHex(16)
		if err != nil {
			return fmt.Errorf("could not generate admin secret: %w", err)
		}
		secret = generated
		log.Printf("WARN  no admin secret given, using generated secret: %s", secret)
	}

	jwtSecretStr := os.Getenv(EnvJWTSecret)
	if pflag.Lookup("jwt-secret").Changed {
		jwtSecretStr = *flagJWTSecret
	}
	var jwtSecret []byte
	if jwtSecretStr != "" {
		jwtSecret = []byte(jwtSecretStr)
	} else {
		generated, err := randomHex(32)
		if err != nil {
			return fmt.Errorf("could not generate JWT secret: %w", err)
		}
		jwtSecret = []byte(generated)
		log.Printf("WARN  using generated JWT secret; admin tokens will become invalid at shutdown")
	}

	hash, err := adminapi.HashSecret(secret)
	if err != nil {
		return fmt.Errorf("could not hash admin secret: %w", err)
	}

	api := adminapi.API{
		Manager: mgr,
		Creds:   adminapi.Credentials{SecretHash: hash, JWTSecret: jwtSecret},
	}

	go func() {
		log.Printf("INFO  admin API listening on %s", listenAddr)
		if err := http.ListenAndServe(listenAddr, api.Router()); err != nil {
			log.Fatalf("FATAL admin API listener exited: %s", err.Error())
		}
	}()

	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
