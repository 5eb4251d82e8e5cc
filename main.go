package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"verbal/audio"
	"verbal/live"
	"verbal/log"
	"verbal/persona"
	"verbal/shutdown"
)

var version = "dev"

func main() {
	run()
}

// appConfig carries everything the TUI needs to drive an interview.
type appConfig struct {
	apiKey          string
	job             string
	seniority       persona.Seniority
	company         string
	questions       int
	personaOverride string
	model           string
	deviceName      string
	record          bool
}

func run() {
	jobFlag := flag.String("job", "", "Job title to interview for (required)")
	seniorityFlag := flag.String("seniority", "Mid", "Role seniority: Entry, Mid, Senior, or Executive")
	companyFlag := flag.String("company", "", "Company URL, used to infer the industry")
	questionsFlag := flag.Int("questions", 5, "Number of interviewer questions")
	personaFlag := flag.String("persona", "", "Skip casting and use a named interviewer (Sarah, Claire, James, David, Thomas)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	recordFlag := flag.Bool("record", false, "Archive microphone audio as FLAC next to the logs")
	modelFlag := flag.String("model", live.DefaultModel, "Live audio model")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	testFlag := flag.Bool("test", false, "Run a scripted interview without audio devices or network")
	flag.Parse()

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *versionFlag {
		fmt.Printf("verbal %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if *testFlag {
		runTestMode(flag.Args())
		return
	}

	if *jobFlag == "" {
		fmt.Fprintln(os.Stderr, "Error: -job is required (e.g., -job \"Backend Engineer\")")
		os.Exit(1)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY is not set")
		os.Exit(1)
	}

	deviceName := *deviceFlag
	if *setupFlag && deviceName == "" {
		ctx, err := audio.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		dev, err := audio.SelectDevice(ctx)
		ctx.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
			fmt.Fprintln(os.Stderr, "Falling back to default device")
		} else if dev != nil {
			deviceName = dev.Name
		}
	}

	cfg := appConfig{
		apiKey:          apiKey,
		job:             *jobFlag,
		seniority:       persona.ParseSeniority(*seniorityFlag),
		company:         *companyFlag,
		questions:       *questionsFlag,
		personaOverride: *personaFlag,
		model:           *modelFlag,
		deviceName:      deviceName,
		record:          *recordFlag,
	}

	program := tea.NewProgram(newAppModel(cfg), tea.WithAltScreen())

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
