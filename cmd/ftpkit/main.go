package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kumarlokesh/ftpkit/internal/config"
	"github.com/kumarlokesh/ftpkit/internal/ftpfs"
	"github.com/kumarlokesh/ftpkit/internal/transfer"
)

const version = "0.1.0"

// stringList collects repeated flag values
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	configPath := flag.String("config", "", "Path to config file")
	host := flag.String("host", "", "FTP server hostname or IP address")
	port := flag.Int("port", 0, "FTP server port number")
	username := flag.String("username", "", "Username for FTP authentication")
	password := flag.String("password", "", "Password for FTP authentication")
	timeout := flag.Duration("timeout", 0, "Connection timeout")
	maxConnections := flag.Int("max-connections", 0, "Maximum number of simultaneous FTP connections")
	maxWorkers := flag.Int("max-workers", 0, "Maximum number of workers for parallel operations")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	help := flag.Bool("help", false, "Show help message")
	showVer := flag.Bool("version", false, "Show version information")

	flag.Parse()

	if *help {
		showHelp()
		os.Exit(0)
	}
	if *showVer {
		showVersion()
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		showHelp()
		os.Exit(1)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		os.Exit(2)
	}

	// Command-line flags take precedence over file and environment values.
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *username != "" {
		cfg.Credentials.Username = *username
	}
	if *password != "" {
		cfg.Credentials.Password = *password
	}
	if *timeout != 0 {
		cfg.Timeout = *timeout
	}
	if *maxConnections != 0 {
		cfg.MaxConnections = *maxConnections
	}
	if *maxWorkers != 0 {
		cfg.MaxWorkers = *maxWorkers
	}

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	args := flag.Args()
	subcommand := args[0]
	subcommandArgs := args[1:]
	switch subcommand {
	case "download":
		handleTransferCommand(cfg, subcommand, subcommandArgs)
	case "upload":
		handleTransferCommand(cfg, subcommand, subcommandArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", subcommand)
		showHelp()
		os.Exit(1)
	}
}

func showHelp() {
	helpText := `ftpkit - FTP file transfers over pooled connections

Usage:
  ftpkit [flags] <command> [arguments]

Flags:
  --config string            Path to config file
  --host string              FTP server hostname or IP address
  --port int                 FTP server port number
  --username string          Username for FTP authentication
  --password string          Password for FTP authentication
  --timeout duration         Connection timeout (e.g. 30s)
  --max-connections int      Maximum number of simultaneous FTP connections
  --max-workers int          Maximum number of workers for parallel operations
  --verbose                  Enable debug logging
  --help                     Show this help message
  --version                  Show version information

Commands:
  download -src <path> [-src <path> ...] -dst <path>
                   Download remote files or directories
  upload   -src <path> [-src <path> ...] -dst <path>
                   Upload local files or directories

Configuration can also be supplied via FTPKIT_* environment variables,
e.g. FTPKIT_HOST and FTPKIT_CREDENTIALS_PASSWORD.
`
	fmt.Print(helpText)
}

func showVersion() {
	fmt.Printf("ftpkit v%s\n", version)
}

func handleTransferCommand(cfg *config.Config, name string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var srcs stringList
	fs.Var(&srcs, "src", "Source path (repeatable)")
	dst := fs.String("dst", "", "Destination path")
	_ = fs.Parse(args)

	if len(srcs) == 0 || *dst == "" {
		fmt.Fprintf(os.Stderr, "%s requires at least one -src and a -dst\n", name)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool := ftpfs.NewPool(cfg)
	if err := pool.Open(ctx); err != nil {
		log.Error().Err(err).Msg("failed to open ftp connection pool")
		os.Exit(1)
	}
	defer pool.Close()

	loader := transfer.New(cfg, ftpfs.New(pool))

	start := time.Now()
	var err error
	switch {
	case name == "download" && len(srcs) == 1:
		err = loader.Download(ctx, srcs[0], *dst)
	case name == "download":
		err = loader.DownloadBatch(ctx, srcs, *dst)
	case len(srcs) == 1:
		err = loader.Upload(ctx, srcs[0], *dst)
	default:
		err = loader.UploadBatch(ctx, srcs, *dst)
	}
	if err != nil {
		log.Error().Err(err).Msgf("%s failed", name)
		os.Exit(1)
	}

	log.Info().Dur("duration", time.Since(start).Round(time.Millisecond)).Msgf("%s completed", name)
}
