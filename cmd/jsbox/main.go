// jsbox runs sandboxed scripts from files or an interactive REPL.
//
// Limits come from the environment (JSBOX_MAX_OPS, JSBOX_MAX_MEM_BYTES,
// JSBOX_TIMEOUT_MS, JSBOX_MAX_CALL_DEPTH) so operators can tighten a
// deployment without rebuilding.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/peterh/liner"

	jssandbox "github.com/for-io/js-sandbox"
	"github.com/for-io/js-sandbox/internal/logging"
)

const (
	appName     = "jsbox"
	historyFile = ".jsbox_history"
	promptMain  = "js> "
	promptCont  = "... "
)

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

// Config holds the execution limits, loaded from JSBOX_* variables.
type Config struct {
	MaxOps       int64  `envconfig:"MAX_OPS"`
	MaxMemBytes  int64  `envconfig:"MAX_MEM_BYTES"`
	TimeoutMs    int64  `envconfig:"TIMEOUT_MS"`
	MaxCallDepth int    `envconfig:"MAX_CALL_DEPTH"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(appName, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (c Config) evalOpts() jssandbox.EvalOpts {
	opts := jssandbox.EvalOpts{
		MaxOps:       c.MaxOps,
		MaxMemBytes:  c.MaxMemBytes,
		MaxCallDepth: c.MaxCallDepth,
	}
	if c.TimeoutMs > 0 {
		opts.Timeout = time.Duration(c.TimeoutMs) * time.Millisecond
	}
	logger, err := logging.New(logging.Config{Level: c.LogLevel, Development: true, OutputPaths: []string{"stderr"}})
	if err == nil {
		opts.Logger = logger
	}
	return opts
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(jssandbox.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`js-sandbox %s

Usage:
  %s run <file.js>    Run a script under the configured limits.
  %s repl             Start the REPL.
  %s version          Print the engine version.

Limits (environment): JSBOX_MAX_OPS, JSBOX_MAX_MEM_BYTES, JSBOX_TIMEOUT_MS,
JSBOX_MAX_CALL_DEPTH, JSBOX_LOG_LEVEL.
`, jssandbox.Version, appName, appName, appName)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file.js>\n", appName)
		return 2
	}
	file := args[0]

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 2
	}

	script, err := jssandbox.Parse(string(src), jssandbox.ScriptInfo{Filename: filepath.Base(file)})
	if err != nil {
		fmt.Fprintln(os.Stderr, red(jssandbox.FormatError(err, string(src))))
		return 1
	}

	v, err := script.Eval(cfg.evalOpts())
	if err != nil {
		fmt.Fprintln(os.Stderr, red(jssandbox.FormatError(err, string(src))))
		return 1
	}
	if !v.IsUndefined() {
		fmt.Println(v.AsString())
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

// The REPL keeps session state by replaying the accumulated source on each
// input; the engine itself has no persistent context. Inputs whose
// evaluation fails are dropped from the session.
func cmdRepl(_ []string) int {
	fmt.Printf("js-sandbox %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.\n", jssandbox.Version)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 2
	}
	opts := cfg.evalOpts()

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	session := ""
	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if strings.EqualFold(trimmed, ":quit") {
				return 0
			}
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}

		next := session + code + "\n"
		script, err := jssandbox.Parse(next, jssandbox.ScriptInfo{Filename: "<repl>"})
		if err != nil {
			fmt.Fprintln(os.Stderr, red(jssandbox.FormatError(err, next)))
			continue
		}
		v, err := script.Eval(opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(jssandbox.FormatError(err, next)))
			continue
		}
		session = next
		if !v.IsUndefined() {
			fmt.Println(blue(v.AsString()))
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readByParseProbe accumulates lines until the buffer parses, or fails with
// an error that is not plain unexpected-end-of-input.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		_, perr := jssandbox.Parse(src)
		if perr == nil {
			return src, true
		}
		if looksIncomplete(perr) {
			continue
		}
		return src, true
	}
}

func looksIncomplete(err error) bool {
	var se *jssandbox.SyntaxError
	if !errors.As(err, &se) {
		return false
	}
	return strings.Contains(se.Message, "end of input")
}
