package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the rotating log written inside the log directory.
const LogFileName = "insurance-mcp.log"

// Init sends the global logger to stderr and to a rotating file. Stdout is left
// alone because the stdio transport owns it.
func Init(verbose bool) error {
	// Init runs before config.Load, so LOGS_FOLDER may still live in the binary's .env.
	exeDir := ""
	if exePath, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exePath)
		_ = godotenv.Load(filepath.Join(exeDir, ".env"))
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	logDir := ResolveDir(os.Getenv("LOGS_FOLDER"), exeDir)
	fileWriter, err := NewFileWriter(logDir)
	if err != nil {
		return err
	}

	log.Logger = New(consoleWriter(), fileWriter)
	return nil
}

// ResolveDir picks the log directory: the configured one, else logs/ next to
// the binary, else ./logs.
func ResolveDir(configured, exeDir string) string {
	switch {
	case configured != "":
		return configured
	case exeDir != "":
		return filepath.Join(exeDir, "logs")
	default:
		return "logs"
	}
}

// NewFileWriter creates logDir if needed, checks that it is writable and
// returns a rotating writer inside it.
func NewFileWriter(logDir string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", logDir, err)
	}

	testFile := filepath.Join(logDir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return nil, fmt.Errorf("log directory %q is not writable: %w", logDir, err)
	}
	_ = os.Remove(testFile)

	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, LogFileName),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}, nil
}

// New builds a timestamped logger fanning out to every writer.
func New(writers ...io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()
}

func consoleWriter() io.Writer {
	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}
}
