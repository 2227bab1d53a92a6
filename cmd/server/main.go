package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rcarmo/go-minissh/internal/config"
	"github.com/rcarmo/go-minissh/internal/handler"
	"github.com/rcarmo/go-minissh/internal/logging"
	"github.com/rcarmo/go-minissh/web"
)

const (
	appName    = "minissh bridge"
	appVersion = "v0.3.0"

	shutdownTimeout = 10 * time.Second
)

type parsedArgs struct {
	host       string
	port       string
	logLevel   string
	configFile string
}

func main() {
	args, action := parseFlags()
	switch action {
	case "help":
		showHelp()
		return
	case "version":
		showVersion()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args); err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
}

func parseFlags() (parsedArgs, string) {
	return parseFlagsWithArgs(os.Args[1:])
}

func parseFlagsWithArgs(argv []string) (parsedArgs, string) {
	fset := flag.NewFlagSet("server", flag.ContinueOnError)
	hostFlag := fset.String("host", "", "bridge listen host")
	portFlag := fset.String("port", "", "bridge listen port")
	logLevelFlag := fset.String("log-level", "", "log level (debug, info, warn, error)")
	configFlag := fset.String("config", "", "path to a TOML configuration file")
	helpFlag := fset.Bool("help", false, "show help")
	versionFlag := fset.Bool("version", false, "show version")

	if err := fset.Parse(argv); err != nil {
		return parsedArgs{}, "help"
	}

	if *helpFlag {
		return parsedArgs{}, "help"
	}

	if *versionFlag {
		return parsedArgs{}, "version"
	}

	return parsedArgs{
		host:       strings.TrimSpace(*hostFlag),
		port:       strings.TrimSpace(*portFlag),
		logLevel:   strings.TrimSpace(*logLevelFlag),
		configFile: strings.TrimSpace(*configFlag),
	}, ""
}

func run(ctx context.Context, args parsedArgs) error {
	cfg, err := config.LoadWithOverrides(config.LoadOptions{
		Host:       args.host,
		Port:       args.port,
		LogLevel:   args.logLevel,
		ConfigFile: args.configFile,
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg.Logging)

	server := createServer(cfg)
	logging.Info("starting %s on %s (default target %s@%s)", appName, server.Addr,
		cfg.SSH.User, net.JoinHostPort(cfg.SSH.Host, cfg.SSH.Port))

	return startServer(ctx, server)
}

func createServer(cfg *config.Config) *http.Server {
	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)

	mux := http.NewServeMux()
	if assets, err := web.DistFS(); err == nil {
		mux.Handle("/", http.FileServer(http.FS(assets)))
	} else {
		logging.Warn("static assets unavailable: %v", err)
	}
	mux.Handle("/connect", handler.NewBridge(cfg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h := applySecurityMiddleware(mux, cfg)
	h = requestLoggingMiddleware(h)

	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func applySecurityMiddleware(next http.Handler, cfg *config.Config) http.Handler {
	if cfg == nil {
		return securityHeadersMiddleware(corsMiddleware(next, nil))
	}

	return securityHeadersMiddleware(corsMiddleware(next, cfg.Security.AllowedOrigins))
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:")

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if isOriginAllowed(origin, allowedOrigins) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isOriginAllowed allows every origin when no allow-list is configured.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}

	if len(allowedOrigins) == 0 {
		return true
	}

	for _, allowed := range allowedOrigins {
		if strings.TrimSpace(allowed) == origin {
			return true
		}
	}

	return false
}

func setupLogging(cfg config.LoggingConfig) {
	logging.SetLevelFromString(cfg.Level)
	logging.SetFormat(cfg.Format)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Debug("%s %s %s %d %s", r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// startServer serves until ctx is cancelled or the listener fails, then
// shuts the server down gracefully.
func startServer(ctx context.Context, server *http.Server) error {
	if server == nil {
		return fmt.Errorf("server is nil")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()

		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logging.Info("server stopped")
		return nil
	})

	return g.Wait()
}

func showHelp() {
	fmt.Println(appName)
	fmt.Println("USAGE: minissh-server [options]")
	fmt.Println("OPTIONS:")
	fmt.Println("  -host        Set server listen host (default 0.0.0.0)")
	fmt.Println("  -port        Set server listen port (default 8080)")
	fmt.Println("  -log-level   Set log level (debug, info, warn, error)")
	fmt.Println("  -config      Read settings from a TOML file")
	fmt.Println("  -version     Show version information")
	fmt.Println("  -help        Show this help message")
	fmt.Println("ENVIRONMENT VARIABLES: SERVER_HOST, SERVER_PORT, SSH_HOST, SSH_PORT, SSH_USER, LOG_LEVEL, LOG_FORMAT, CONFIG_FILE")
	fmt.Println("EXAMPLES: minissh-server -host 0.0.0.0 -port 8080 -config minissh.toml")
}

func showVersion() {
	fmt.Printf("%s %s\n", appName, appVersion)
	fmt.Println("Protocol: SSH binary packet framing, unencrypted")
}
