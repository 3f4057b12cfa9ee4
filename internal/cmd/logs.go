package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/redcode-editor/redcode/internal/config"
	"github.com/redcode-editor/redcode/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View editor logs",
	Long: `View and filter the redcode log file.

The log lives in the state directory (see 'redcode config path'). Use flags
to filter and format the output.

Examples:
  # Show the last 50 lines
  redcode logs

  # Show everything logged about one document
  redcode logs -d 3f2a9c1e -n 0

  # Follow logs in real-time
  redcode logs -f

  # Filter by log level
  redcode logs --level warn

  # Show logs from the last hour
  redcode logs --since 1h

  # Search for specific patterns
  redcode logs --grep "save|conflict"`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsDocumentID string
	logsTail       int
	logsFollow     bool
	logsLevel      string
	logsSince      string
	logsGrep       string
	logsNoColor    bool
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVarP(&logsDocumentID, "document", "d", "", "Only show entries for this document ID (prefix match)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter logs matching pattern (regex)")
	logsCmd.Flags().BoolVar(&logsNoColor, "no-color", false, "Disable colored output")
}

// logEntry represents a parsed JSON log line
type logEntry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"`
	Msg        string         `json:"msg"`
	SessionID  string         `json:"session_id,omitempty"`
	DocumentID string         `json:"document_id,omitempty"`
	Extra      map[string]any `json:"-"` // Captures additional fields
}

// UnmarshalJSON implements custom unmarshaling to capture extra fields
func (e *logEntry) UnmarshalJSON(data []byte) error {
	// First, unmarshal known fields using a type alias to avoid recursion
	type Alias logEntry
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, known := range []string{"time", "level", "msg", "session_id", "document_id"} {
		delete(all, known)
	}
	if len(all) > 0 {
		e.Extra = all
	}
	return nil
}

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// levelColor returns the ANSI color code for a log level
func levelColor(level string) string {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return colorGray
	case logging.LevelInfo:
		return colorBlue
	case logging.LevelWarn:
		return colorYellow
	case logging.LevelError:
		return colorRed
	default:
		return colorReset
	}
}

// levelPriority returns the priority of a log level for filtering
func levelPriority(level string) int {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return 0
	case logging.LevelInfo:
		return 1
	case logging.LevelWarn:
		return 2
	case logging.LevelError:
		return 3
	default:
		return -1
	}
}

// logFilter holds the parsed filter flags.
type logFilter struct {
	minLevel   int
	since      time.Time
	grep       *regexp.Regexp
	documentID string
}

// logPrinter formats entries, with ANSI colors when color is set.
type logPrinter struct {
	out   io.Writer
	color bool
}

func (p logPrinter) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + colorReset
}

// format formats a log entry for terminal output
func (p logPrinter) format(entry *logEntry) string {
	var sb strings.Builder

	sb.WriteString(p.paint(colorGray, "["+entry.Time.Format("15:04:05.000")+"]"))
	sb.WriteString(" ")
	sb.WriteString(p.paint(levelColor(entry.Level), "["+strings.ToUpper(entry.Level)+"]"))
	sb.WriteString(" ")
	sb.WriteString(entry.Msg)

	if entry.DocumentID != "" {
		sb.WriteString(" ")
		sb.WriteString(p.paint(colorCyan, "document_id="+entry.DocumentID))
	}

	// Extra fields, sorted so output is stable
	keys := make([]string, 0, len(entry.Extra))
	for k := range entry.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(p.paint(colorCyan, k+"="))
		fmt.Fprintf(&sb, "%v", entry.Extra[k])
	}

	return sb.String()
}

// render returns the line to print for raw, or false when it is filtered out.
// Lines that are not JSON are passed through untouched.
func (p logPrinter) render(raw string, f logFilter) (string, bool) {
	var entry logEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return raw, true
	}
	if !f.passes(&entry) {
		return "", false
	}
	return p.format(&entry), true
}

func runLogs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	logPath := filepath.Join(config.Get().Session.ResolvedStateDir(), logging.LogFileName)

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No logs found.")
		fmt.Fprintln(out, "Logs are stored at:", logPath)
		return nil
	}

	filter := logFilter{minLevel: -1, documentID: logsDocumentID}
	if logsLevel != "" {
		filter.minLevel = levelPriority(logging.ParseLevel(logsLevel))
	}
	if logsSince != "" {
		duration, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.since = time.Now().Add(-duration)
	}
	if logsGrep != "" {
		re, err := regexp.Compile(logsGrep)
		if err != nil {
			return fmt.Errorf("invalid grep pattern: %w", err)
		}
		filter.grep = re
	}

	color := !logsNoColor
	if f, ok := out.(*os.File); !ok || !isTerminal(f) {
		color = false
	}
	p := logPrinter{out: out, color: color}

	if logsFollow {
		return p.follow(cmd.Context(), logPath, filter)
	}
	return p.display(logPath, logsTail, filter)
}

// display reads the log file and prints the filtered entries
func (p logPrinter) display(logPath string, tail int, f logFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)

	// Increase buffer size for potentially long log lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		raw := scanner.Text()
		if raw == "" {
			continue
		}
		if line, ok := p.render(raw, f); ok {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	if tail > 0 && len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}
	for _, line := range lines {
		fmt.Fprintln(p.out, line)
	}
	if len(lines) == 0 {
		fmt.Fprintln(p.out, "No matching log entries found.")
	}
	return nil
}

// follow implements tail -f behavior until ctx is cancelled
func (p logPrinter) follow(ctx context.Context, logPath string, f logFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Fprintf(p.out, "Following logs... (Ctrl+C to stop)\n\n")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	reader := bufio.NewReader(file)
	for {
		raw, err := reader.ReadString('\n')
		if err == io.EOF {
			// No new data, wait briefly and try again
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if line, ok := p.render(raw, f); ok {
			fmt.Fprintln(p.out, line)
		}
	}
}

// passes checks if a log entry passes all filter criteria
func (f logFilter) passes(entry *logEntry) bool {
	if f.minLevel >= 0 && levelPriority(entry.Level) < f.minLevel {
		return false
	}
	if !f.since.IsZero() && entry.Time.Before(f.since) {
		return false
	}
	if f.documentID != "" && !strings.HasPrefix(entry.DocumentID, f.documentID) {
		return false
	}

	// Grep filter - search in message and extra fields
	if f.grep != nil {
		searchText := entry.Msg
		for _, v := range entry.Extra {
			searchText += " " + fmt.Sprintf("%v", v)
		}
		if !f.grep.MatchString(searchText) {
			return false
		}
	}
	return true
}
