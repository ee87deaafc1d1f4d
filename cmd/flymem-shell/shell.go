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

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"flymem/internal/banner"
	"flymem/pkg/flymem"
)

// ============================================================================
// Styles
// ============================================================================

var (
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	nullStyle   = cellStyle.Faint(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func highlight(s string) string { return highlightStyle.Render(s) }
func info(s string) string      { return infoStyle.Render(s) }
func warning(s string) string   { return warningStyle.Render(s) }
func dim(s string) string       { return dimStyle.Render(s) }

// printError writes err, followed by its hint when it carries one.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render(err.Error()))
	var ferr *flymem.Error
	if errors.As(err, &ferr) && ferr.Hint != "" {
		fmt.Fprintln(w, dim("HINT: ")+ferr.Hint)
	}
}

func printWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, warning(msg))
}

// ============================================================================
// Input handling
// ============================================================================

// statementBuffer collects input lines until a statement is complete.
type statementBuffer struct {
	sb strings.Builder
}

// Pending reports whether part of a statement has been read.
func (b *statementBuffer) Pending() bool { return b.sb.Len() > 0 }

// Reset discards the buffered input.
func (b *statementBuffer) Reset() { b.sb.Reset() }

func (b *statementBuffer) String() string { return b.sb.String() }

// Add appends a line. It returns the buffered text once it ends with a
// semicolon outside quotes and comments. A shell command on an empty buffer
// is returned at once.
func (b *statementBuffer) Add(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !b.Pending() {
		if trimmed == "" {
			return "", false
		}
		if isCommand(trimmed) {
			return trimmed, true
		}
	} else {
		b.sb.WriteByte('\n')
	}
	b.sb.WriteString(line)

	text := b.sb.String()
	if !terminated(text) {
		return "", false
	}
	b.sb.Reset()
	return strings.TrimSpace(text), true
}

// terminated reports whether the last significant character of text is a
// semicolon outside string literals, quoted identifiers and -- comments.
func terminated(text string) bool {
	var quote, last byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		}
		last = c
	}
	return quote == 0 && last == ';'
}

func isCommand(text string) bool {
	return strings.HasPrefix(text, "\\")
}

// splitCommand splits "\d users" into "\d" and "users".
func splitCommand(text string) (string, string) {
	name, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	return name, strings.TrimSpace(strings.TrimSuffix(arg, ";"))
}

// ============================================================================
// Shell
// ============================================================================

// shell runs statements and shell commands against one database.
type shell struct {
	db     *flymem.DB
	out    io.Writer
	errOut io.Writer
	timing bool
}

func newShell(db *flymem.DB, out io.Writer) *shell {
	return &shell{db: db, out: out, errOut: os.Stderr}
}

// execute runs SQL text and prints the result of its last statement. It
// reports whether the text ran without error.
func (s *shell) execute(text string) bool {
	start := time.Now()
	res, err := s.db.Query(text)
	elapsed := time.Since(start)
	if err != nil {
		printError(s.errOut, err)
		return false
	}
	s.printResult(res)
	if s.timing {
		fmt.Fprintln(s.out, dim(fmt.Sprintf("Time: %.3f ms", float64(elapsed.Microseconds())/1000)))
	}
	return true
}

func (s *shell) printResult(res *flymem.Result) {
	switch {
	case res.Command == "":
	case len(res.Columns) > 0:
		headers := make([]string, len(res.Columns))
		for i, c := range res.Columns {
			headers[i] = c.Name
		}
		s.printTable(headers, res.Text)
		fmt.Fprintln(s.out, dim(rowCount(len(res.Rows))))
	case res.Command == "INSERT" || res.Command == "UPDATE" || res.Command == "DELETE":
		fmt.Fprintf(s.out, "%s %d\n", res.Command, res.RowCount)
	default:
		fmt.Fprintln(s.out, res.Command)
	}
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return "(" + strconv.Itoa(n) + " rows)"
}

// printTable renders rows under headers. Cells that read NULL are dimmed.
func (s *shell) printTable(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(rows) && col < len(rows[row]) && rows[row][col] == "NULL":
				return nullStyle
			}
			return cellStyle
		})
	fmt.Fprintln(s.out, t.String())
}

// command runs a shell command and reports whether the shell should exit.
func (s *shell) command(text string) bool {
	name, arg := splitCommand(text)
	switch name {
	case "\\q", "\\quit":
		return true
	case "\\h", "\\help", "\\?":
		s.printHelp()
	case "\\v", "\\version":
		fmt.Fprintf(s.out, "flymem-shell version %s\n", banner.Version)
	case "\\timing":
		s.timing = !s.timing
		state := "off"
		if s.timing {
			state = "on"
		}
		fmt.Fprintln(s.out, "Timing is "+state+".")
	case "\\dt":
		s.listTables()
	case "\\d":
		if arg == "" {
			s.listTables()
		} else {
			s.describeTable(arg)
		}
	case "\\di":
		s.listIndexes()
	case "\\ds":
		s.listSequences()
	case "\\stats":
		s.printStats()
	default:
		printError(s.errOut, fmt.Errorf("unknown command %s (try \\h)", name))
	}
	return false
}

func (s *shell) listTables() {
	tables := s.db.Tables()
	if len(tables) == 0 {
		fmt.Fprintln(s.out, dim("No tables."))
		return
	}
	rows := make([][]string, len(tables))
	for i, t := range tables {
		rows[i] = []string{t.Name, strconv.Itoa(len(t.Columns)), strconv.Itoa(t.Rows)}
	}
	s.printTable([]string{"table", "columns", "rows"}, rows)
}

func (s *shell) describeTable(name string) {
	for _, t := range s.db.Tables() {
		if t.Name != name {
			continue
		}
		rows := make([][]string, len(t.Columns))
		for i, c := range t.Columns {
			rows[i] = []string{c.Name, c.Type}
		}
		s.printTable([]string{"column", "type"}, rows)
		return
	}
	printError(s.errOut, fmt.Errorf("table %q does not exist", name))
}

func (s *shell) listIndexes() {
	indexes := s.db.Indexes()
	if len(indexes) == 0 {
		fmt.Fprintln(s.out, dim("No indexes."))
		return
	}
	rows := make([][]string, len(indexes))
	for i, ix := range indexes {
		kind := "index"
		switch {
		case ix.Primary:
			kind = "primary key"
		case ix.Unique:
			kind = "unique"
		}
		rows[i] = []string{ix.Name, ix.Table, strings.Join(ix.Columns, ", "), kind}
	}
	s.printTable([]string{"index", "table", "columns", "kind"}, rows)
}

func (s *shell) listSequences() {
	seqs := s.db.Sequences()
	if len(seqs) == 0 {
		fmt.Fprintln(s.out, dim("No sequences."))
		return
	}
	rows := make([][]string, len(seqs))
	for i, seq := range seqs {
		rows[i] = []string{seq.Name, seq.Owner, strconv.FormatInt(seq.Increment, 10)}
	}
	s.printTable([]string{"sequence", "owned by", "increment"}, rows)
}

func (s *shell) printStats() {
	stats := s.db.Stats()
	if err := stats.Metrics.WriteText(s.out); err != nil {
		printError(s.errOut, err)
		return
	}
	fmt.Fprintf(s.out, "# statement cache: %d/%d entries, %d hits, %d misses\n",
		stats.Cache.Entries, stats.Cache.MaxEntries, stats.Cache.Hits, stats.Cache.Misses)
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "  "+highlight("FlyMem Shell Help")+" "+dim("(v"+banner.Version+")"))
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "  "+highlight("Shell Commands"))
	for _, c := range [][2]string{
		{"\\q, \\quit", "Exit the shell"},
		{"\\h, \\help", "Display this help message"},
		{"\\dt", "List tables"},
		{"\\d <table>", "Describe a table"},
		{"\\di", "List indexes"},
		{"\\ds", "List sequences"},
		{"\\stats", "Show engine statistics"},
		{"\\timing", "Toggle statement timing"},
		{"\\v, \\version", "Show version information"},
	} {
		fmt.Fprintf(s.out, "    %-16s %s\n", c[0], c[1])
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "  "+highlight("SQL"))
	fmt.Fprintln(s.out, "    End statements with ';'. BEGIN starts an explicit transaction;")
	fmt.Fprintln(s.out, "    otherwise every statement commits on success.")
	fmt.Fprintln(s.out)
}
