package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"localtranscriber/internal/app"
	"localtranscriber/internal/config"
	"localtranscriber/internal/logger"
	"localtranscriber/internal/media"
	"localtranscriber/internal/transcript"
)

const version = "1.0"

var rule = strings.Repeat("=", 80)

// main is the application entry point
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, transcribes one file and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...app.Option) int {
	flags := pflag.NewFlagSet("localtranscriber", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { printHelp(stdout) }

	flags.StringP("model", "m", config.DefaultWhisperModel, "Whisper model size ("+strings.Join(config.WhisperModels, "|")+")")
	flags.BoolP("diarize", "d", false, "Enable speaker diarization (requires HuggingFace connector setup)")
	flags.IntP("speakers", "s", 0, "Expected number of speakers (0 = auto-detect)")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
	flags.String("log-format", logger.FormatConsole, "Log output format (console|json)")
	flags.Bool("debug", false, "Log per-stage benchmark metrics")
	configFile := flags.String("config", "", "Path to a YAML, TOML or JSON config file")
	helpFlag := flags.BoolP("help", "h", false, "Show help message")
	versionFlag := flags.Bool("version", false, "Show version information")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *helpFlag {
		printHelp(stdout)
		return 0
	}
	if *versionFlag {
		printVersion(stdout)
		return 0
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one audio file")
		fmt.Fprintln(stderr, "Run 'localtranscriber --help' for usage.")
		return 1
	}
	audioPath := flags.Arg(0)

	cfg, err := loadConfiguration(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.BindFlags(flags); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	zapLogger, err := logger.New(cfg.GetLogFormat(), cfg.GetLogLevel())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer zapLogger.Sync()

	application, err := app.NewApplication(cfg, zapLogger, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printBanner(stdout, cfg.GetDiarizationEnabled())

	zapLogger.Debug("starting transcription run",
		zap.String("component", "main"),
		zap.String("run_id", application.RunID()),
		zap.String("version", version))

	result, err := application.Run(ctx, audioPath)
	if err != nil {
		reportError(stderr, err)
		return 1
	}

	printSummary(stdout, result)
	return 0
}

func loadConfiguration(configFile string) (*config.Configuration, error) {
	if configFile != "" {
		return config.NewConfigurationFromFile(configFile)
	}
	return config.NewConfigurationFromEnv()
}

const (
	diarizationHint   = "Speaker diarization failed. Check that pyannote.audio is installed (pip install pyannote.audio>=3.1.0), or run without --diarize."
	transcriptionHint = "Transcription failed. Check that openai-whisper and ffmpeg are installed (pip install openai-whisper)."
)

// reportError prints one human-readable line plus any setup guidance
func reportError(w io.Writer, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, "Error: interrupted")
	case app.IsAuthenticationError(err):
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintf(w, "\n%s\n", app.Guidance(err))
	case errors.Is(err, app.ErrDiarization):
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintf(w, "\n%s\n", diarizationHint)
	case errors.Is(err, app.ErrTranscription):
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintf(w, "\n%s\n", transcriptionHint)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

func printBanner(w io.Writer, diarize bool) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "VOICE TRANSCRIPTION TOOL (LOCAL EXECUTION)")
	fmt.Fprintln(w, "100% Local - No API Keys Required - Completely Free")
	if diarize {
		fmt.Fprintln(w, "Speaker Diarization: ENABLED")
	}
	fmt.Fprintf(w, "%s\n\n", rule)
}

func printSummary(w io.Writer, result *app.Result) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "TRANSCRIPTION COMPLETED SUCCESSFULLY")
	fmt.Fprintln(w, rule)
	if result.Mode == transcript.ModeDiarized {
		fmt.Fprintf(w, "\nSpeakers: %d (%d turns)\n", result.Speakers, result.Turns)
	}
	fmt.Fprintln(w, "\nOutput file:")
	fmt.Fprintf(w, "  %s\n\n", result.OutputPath)
}

// printHelp displays command line usage information
func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Local Transcriber - Audio Transcription with Optional Speaker Diarization")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "    localtranscriber [OPTIONS] <audio-file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "    -m, --model NAME      Whisper model size: tiny, base, small, medium, large (default: base)")
	fmt.Fprintln(w, "    -d, --diarize         Enable speaker diarization (requires HuggingFace connector setup)")
	fmt.Fprintln(w, "    -s, --speakers N      Expected number of speakers (optional, improves diarization accuracy)")
	fmt.Fprintln(w, "        --config FILE     Load settings from a YAML, TOML or JSON file")
	fmt.Fprintln(w, "        --log-level LVL   debug, info, warn or error (default: info)")
	fmt.Fprintln(w, "        --log-format FMT  console or json (default: console)")
	fmt.Fprintln(w, "        --debug           Log per-stage benchmark metrics")
	fmt.Fprintln(w, "    -h, --help            Show this help message")
	fmt.Fprintln(w, "        --version         Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SUPPORTED FORMATS:")
	fmt.Fprintf(w, "    %s\n", strings.Join(media.SupportedFormats, " "))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CONFIGURATION:")
	fmt.Fprintln(w, "    Environment variables use the TRANSCRIBER_ prefix (e.g. TRANSCRIBER_TRANSCRIPTION_BACKEND).")
	fmt.Fprintln(w, "    WHISPER_MODEL, HUGGINGFACE_API_TOKEN, HF_TOKEN and PYTHON_PATH are also read.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "    localtranscriber meeting.m4a                    # Plain transcript with the base model")
	fmt.Fprintln(w, "    localtranscriber -m small -d -s 2 call.wav      # Two-speaker diarized transcript")
}

// printVersion displays version and build information
func printVersion(w io.Writer) {
	fmt.Fprintln(w, "Local Transcriber")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintln(w, "Architecture: Go 1.24 + openai-whisper + pyannote.audio")
}
