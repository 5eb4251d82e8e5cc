package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcriptFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: VERBAL_LOG_PATH environment variable
	envPath := os.Getenv("VERBAL_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcriptPath := filepath.Join(dir, "transcript_log.txt")
	transcriptFile, err = os.OpenFile(transcriptPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcriptFile != nil {
		transcriptFile.Close()
		transcriptFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// TranscriptLine mirrors one committed utterance into transcript_log.txt
// so an interview survives a crash of the feedback stage.
func TranscriptLine(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcriptFile.WriteString(line)
}

func InterviewStart(persona, voice, job, seniority string, questions int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("persona", persona).
		Str("voice", voice).
		Str("job", job).
		Str("seniority", seniority).
		Int("questions", questions).
		Msg("interview_start")
}

func InterviewEnd(turns, lines, droppedFrames int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("turns", turns).
		Int("lines", lines).
		Int("dropped_frames", droppedFrames).
		Msg("interview_end")
}

type ReviewMetricsData struct {
	Model      string
	PromptKB   float64
	TotalMs    float64
	StatusCode int
	Fallback   bool
}

func ReviewMetrics(m ReviewMetricsData) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("model", m.Model).
		Float64("prompt_kb", m.PromptKB).
		Float64("total_ms", m.TotalMs).
		Int("status", m.StatusCode).
		Bool("fallback", m.Fallback).
		Msg("review_call")
}

func LiveSessionMetrics(connectMs float64, sentChunks, recvMessages, audioChunks, interruptions int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("connect_ms", connectMs).
		Int("sent_chunks", sentChunks).
		Int("recv_messages", recvMessages).
		Int("audio_chunks", audioChunks).
		Int("interruptions", interruptions).
		Msg("live_session")
}
