package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// writeOutput encodes v as json or yaml. For text it calls text, which
// renders v for a terminal.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		// Round-trip through JSON so yaml keys follow the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	case outputText, "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// writeFields prints a flat object as aligned "key: value" lines, sorted,
// with content last.
func writeFields(w io.Writer, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	width := 0
	for k := range fields {
		if k == "content" {
			continue
		}
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		label := colorize(colorBold, fmt.Sprintf("%-*s", width, k))
		if _, err := fmt.Fprintf(w, "%s  %s\n", label, formatValue(fields[k])); err != nil {
			return err
		}
	}
	if content, ok := fields["content"]; ok {
		if len(keys) > 0 {
			fmt.Fprintln(w)
		}
		_, err := fmt.Fprintln(w, formatValue(content))
		return err
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = formatValue(p)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		raw, _ := json.Marshal(val)
		return string(raw)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
