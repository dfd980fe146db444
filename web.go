package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/wordchain/internal/dictionary"
	"github.com/Seednode/wordchain/internal/wordchain"
)

const (
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("wordchain v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Version page (%d B) to %s in %s",
			written,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// newValidator picks the dictionary backing word validation: the krdict API
// when a key is configured, otherwise a local word list, otherwise nothing
// (every word is then rejected).
func newValidator(cfg *Config) (*dictionary.Validator, error) {
	var lookup dictionary.Lookup

	switch {
	case cfg.dictionaryKey != "":
		lookup = dictionary.NewKRDict(cfg.dictionaryKey, cfg.dictionaryURL, cfg.dictionaryTimeout)
		logf(cfg, "START: Using krdict at %s", cfg.dictionaryURL)
	case cfg.wordList != "":
		words, err := dictionary.LoadWordList(cfg.wordList)
		if err != nil {
			return nil, err
		}
		lookup = words
		logf(cfg, "START: Loaded %d words from %s", words.Len(), cfg.wordList)
	default:
		cfg.log.Warn().Msg("no --dictionary-key or --word-list set; every word will be rejected")
	}

	return dictionary.New(lookup, dictionary.Options{
		TTL:        cfg.dictionaryTTL,
		MaxEntries: cfg.dictionaryCacheSize,
		Logger:     cfg.log.With().Str("component", "dictionary").Logger(),
	}), nil
}

func newManager(cfg *Config, validator wordchain.Validator) *wordchain.Manager {
	return wordchain.NewManager(validator, wordchain.Config{
		TimeLimit:     cfg.turnTime,
		Grace:         wordchain.DefaultGrace,
		MaxPlayers:    cfg.maxPlayers,
		LookupTimeout: cfg.dictionaryTimeout,
		Logger:        cfg.log.With().Str("component", "rooms").Logger(),
	})
}

func newRouter(cfg *Config, gm *wordchain.Manager, validator *dictionary.Validator, errs chan<- error) *httprouter.Router {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		errorf(cfg, "PANIC: %v (%s %s)", i, r.Method, r.URL.Path)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage("Server Error", "An error has occurred. Please try again."))
	}

	mux.GET(cfg.prefix+"/", serveHomePage(cfg, errs))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	mux.GET(cfg.prefix+"/stats", serveStats(cfg, gm, validator, errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	registerWordChain(cfg, gm, mux)

	return mux
}

func ServePage(ctx context.Context, cfg *Config, args []string) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logf(cfg, "START: wordchain v%s", releaseVersion)

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	validator, err := newValidator(cfg)
	if err != nil {
		return err
	}

	gm := newManager(cfg, validator)
	defer gm.Close()

	errs := make(chan error, 64)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           newRouter(cfg, gm, validator, errs),
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	go func() {
		for err := range errs {
			errorf(cfg, "SERVE: %v", err)
		}
	}()

	go func() {
		var err error
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorf(cfg, "ERROR: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
