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
Package banner provides the startup banner of the FlyMem shell.

The ASCII art is embedded from banner.txt at compile time. Styling goes
through lipgloss, which drops colors when the output is not a terminal, so
the same call serves an interactive session and a redirected one.

Usage:
======

	banner.Print(os.Stdout)
	banner.PrintWithConfig(os.Stdout, cfg)
*/
package banner

import (
	_ "embed" // Required for the //go:embed directive
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"flymem/internal/config"
)

//go:embed banner.txt
var banner string

// Version information for the FlyMem shell.
const (
	Version   = "01.26.14"
	Copyright = "(c)2026 Firefly Software Solutions Inc"
	License   = "Licensed under Apache 2.0"
)

var (
	logoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// Print writes the logo with version and copyright information.
func Print(w io.Writer) {
	fmt.Fprintln(w, logoStyle.Render(strings.TrimRight(banner, "\n")))
	fmt.Fprintln(w, titleStyle.Render(":: FlyMem ::                    (v"+Version+")"))
	fmt.Fprintln(w, noticeStyle.Render(Copyright))
	fmt.Fprintln(w, noticeStyle.Render(License))
	fmt.Fprintln(w)
}

// PrintWithConfig writes the banner followed by the engine settings.
func PrintWithConfig(w io.Writer, cfg *config.Config) {
	Print(w)

	fmt.Fprint(w, "  "+dimStyle.Render("Config: "))
	if cfg.ConfigFile != "" {
		fmt.Fprintln(w, cfg.ConfigFile)
	} else {
		fmt.Fprintln(w, dimStyle.Render("defaults + environment"))
	}
	fmt.Fprintln(w)

	const lineWidth = 60
	printSectionHeader(w, "Engine", lineWidth)
	printRow2(w, fmtKV("Collation", collation(cfg)), fmtKV("Index degree", strconv.Itoa(cfg.IndexDegree)))
	printRow2(w, fmtKV("Statement cache", cacheSize(cfg.StatementCache)), fmtKV("Log", cfg.LogLevel))
	fmt.Fprintln(w)
}

func collation(cfg *config.Config) string {
	if strings.EqualFold(cfg.Collation, "unicode") {
		return cfg.Collation + " (" + cfg.Locale + ")"
	}
	return cfg.Collation
}

func cacheSize(n int) string {
	if n <= 0 {
		return "off"
	}
	return strconv.Itoa(n) + " entries"
}

func printSectionHeader(w io.Writer, title string, width int) {
	rightPad := max(width-len(title)-6, 0)
	fmt.Fprintf(w, "  %s %s %s\n",
		dimStyle.Render("--["),
		sectionStyle.Render(title),
		dimStyle.Render("]"+strings.Repeat("-", rightPad)))
}

func fmtKV(key, value string) string {
	return dimStyle.Render(key+":") + " " + valueStyle.Render(value)
}

// printRow2 pads on the rendered width so styled cells line up.
func printRow2(w io.Writer, col1, col2 string) {
	pad := max(34-lipgloss.Width(col1), 1)
	fmt.Fprintf(w, "  %s%s%s\n", col1, strings.Repeat(" ", pad), col2)
}
