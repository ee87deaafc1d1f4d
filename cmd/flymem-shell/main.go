/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
FlyMem Shell is an interactive SQL prompt over an in-memory database.

Usage:

	flymem-shell [flags]

Flags:

	-config <path>     Path to a TOML configuration file
	-log-level <lvl>   Override the log level (debug, info, warn, error)
	-e <sql>           Execute the statements and exit

Statements end with a semicolon and may span several lines. Lines that
start with a backslash are shell commands (\h lists them).

When stdin is not a terminal the shell reads it as a script: no banner,
no prompt, and the exit status is 1 if any statement failed.

	echo "CREATE TABLE t (a int); INSERT INTO t VALUES (1); SELECT * FROM t;" | flymem-shell
*/
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"flymem/internal/banner"
	"flymem/internal/config"
	"flymem/internal/logging"
	"flymem/pkg/flymem"
)

var shellLog = logging.NewLogger("shell")

// CLIFlags holds the command-line flags.
type CLIFlags struct {
	ConfigFile string
	LogLevel   string
	Execute    string
	Version    bool
}

func parseFlags() CLIFlags {
	var flags CLIFlags
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to configuration file")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.Execute, "e", "", "Execute the statements and exit")
	flag.BoolVar(&flags.Version, "version", false, "Print version information and exit")
	flag.Parse()
	return flags
}

// isTerminal returns true if stdin is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// loadConfig applies the config file (explicit or discovered), then the
// environment, then the flags.
func loadConfig(flags CLIFlags) (*config.Config, error) {
	mgr := config.NewManager()
	if flags.ConfigFile != "" {
		if err := mgr.LoadFromFile(flags.ConfigFile); err != nil {
			return nil, err
		}
		if err := mgr.LoadFromEnv(); err != nil {
			return nil, err
		}
	} else if err := mgr.Load(); err != nil {
		return nil, err
	}
	cfg := mgr.Get()
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	return cfg, nil
}

func main() {
	flags := parseFlags()
	if flags.Version {
		fmt.Printf("flymem-shell version %s\n", banner.Version)
		fmt.Println(banner.Copyright)
		return
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
	db, err := flymem.Open(cfg)
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
	shellLog.Info("Shell started", "version", banner.Version, "collation", cfg.Collation,
		"config_file", cfg.ConfigFile)

	sh := newShell(db, os.Stdout)

	if flags.Execute != "" {
		if !sh.execute(flags.Execute) {
			os.Exit(1)
		}
		return
	}

	if !isTerminal() {
		if !sh.runScript(os.Stdin) {
			os.Exit(1)
		}
		return
	}

	banner.PrintWithConfig(os.Stdout, cfg)
	fmt.Printf("  Type %s to quit, %s for help\n\n", highlight("\\q"), highlight("\\h"))
	if err := runREPL(sh, cfg); err != nil {
		// Fall back to plain line reading if readline cannot drive the terminal.
		printWarning(os.Stderr, "Advanced line editing unavailable: "+err.Error())
		sh.runScript(os.Stdin)
	}
}

// historyPath expands a leading "~" in the configured history file.
func historyPath(path string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

// createCompleter creates a readline completer for tab completion.
func createCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(completions))
	for _, word := range completions {
		items = append(items, readline.PcItem(word))
	}
	return readline.NewPrefixCompleter(items...)
}

var completions = []string{
	"SELECT", "INSERT INTO", "UPDATE", "DELETE FROM",
	"CREATE TABLE", "CREATE INDEX", "CREATE UNIQUE INDEX", "CREATE SEQUENCE",
	"DROP TABLE", "DROP INDEX", "DROP SEQUENCE",
	"BEGIN", "COMMIT", "ROLLBACK",
	"\\q", "\\h", "\\dt", "\\di", "\\ds", "\\d", "\\stats", "\\timing",
}

// filterInput filters input runes for readline.
func filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}

func runREPL(sh *shell, cfg *config.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              prompt(false, false),
		HistoryFile:         historyPath(cfg.HistoryFile),
		AutoComplete:        createCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	var buf statementBuffer
	for {
		rl.SetPrompt(prompt(buf.Pending(), sh.db.InTransaction()))
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if buf.Pending() {
				buf.Reset()
				continue
			}
			fmt.Println(dim("(Use \\q to quit or Ctrl+D to exit)"))
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				printError(os.Stderr, err)
			}
			fmt.Println()
			return nil
		}

		text, ok := buf.Add(line)
		if !ok {
			continue
		}
		if isCommand(text) {
			if sh.command(text) {
				return nil
			}
			continue
		}
		sh.execute(text)
	}
}

func prompt(continuation, inTx bool) string {
	switch {
	case continuation:
		return dim("     -> ")
	case inTx:
		return info("flymem") + warning("*") + dim(">") + " "
	}
	return info("flymem") + dim(">") + " "
}

// runScript executes a script read from r. Shell commands other than \q
// are ignored. It reports whether every statement succeeded.
func (s *shell) runScript(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var buf statementBuffer
	ok := true
	for scanner.Scan() {
		text, complete := buf.Add(scanner.Text())
		if !complete {
			continue
		}
		if isCommand(text) {
			if name, _ := splitCommand(text); name == "\\q" || name == "\\quit" {
				return ok
			}
			continue
		}
		if !s.execute(text) {
			ok = false
		}
	}
	if err := scanner.Err(); err != nil {
		printError(os.Stderr, err)
		return false
	}
	// A trailing statement without a semicolon still runs.
	if rest := strings.TrimSpace(buf.String()); rest != "" && !isCommand(rest) {
		if !s.execute(rest) {
			ok = false
		}
	}
	return ok
}
