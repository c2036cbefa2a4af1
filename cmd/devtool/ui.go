package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	colorGreen  = "\033[0;32m"
	colorRed    = "\033[0;31m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
	colorReset  = "\033[0m"
)

// stdout receives all devtool output; tests swap it for a buffer
var stdout io.Writer = os.Stdout

// colorize is false when NO_COLOR is set
var colorize = os.Getenv("NO_COLOR") == ""

func printLine(color, symbol, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if !colorize {
		fmt.Fprintf(stdout, "%s %s\n", symbol, msg)
		return
	}
	fmt.Fprintf(stdout, "%s%s %s%s\n", color, symbol, msg, colorReset)
}

func PrintInfo(format string, a ...interface{}) { printLine(colorBlue, "ℹ", format, a...) }
func PrintSuccess(format string, a ...interface{}) { printLine(colorGreen, "✓", format, a...) }
func PrintWarning(format string, a ...interface{}) { printLine(colorYellow, "⚠", format, a...) }
func PrintError(format string, a ...interface{}) { printLine(colorRed, "✗", format, a...) }

func PrintHeader(title string) {
	fmt.Fprintln(stdout)
	printLine(colorYellow, "===", "%s ===", title)
}

// Command execution helpers

// checkHostile rejects arguments carrying shell metacharacters, newlines or
// null bytes
func checkHostile(inputs ...string) error {
	for _, s := range inputs {
		if strings.ContainsAny(s, "\n\r") {
			return fmt.Errorf("hostile input detected: newlines or carriage returns")
		}
		if strings.Contains(s, "\x00") {
			return fmt.Errorf("hostile input detected: null byte")
		}
		for _, p := range []string{"|", "`", "$(", "&&", "||", ">", "<", ";"} {
			if strings.Contains(s, p) {
				return fmt.Errorf("hostile input detected: pattern %q in %q", p, s)
			}
		}
	}
	return nil
}

func getCommandOutput(name string, args ...string) (string, error) {
	if err := checkHostile(append([]string{name}, args...)...); err != nil {
		return "", err
	}
	// #nosec G204 - Generic command wrapper
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// runCommandVerbose runs a command and pipes output to stdout/stderr
func runCommandVerbose(name string, args ...string) error {
	if err := checkHostile(append([]string{name}, args...)...); err != nil {
		return err
	}
	// #nosec G204 - Generic command wrapper
	cmd := exec.Command(name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// dbURL honours DB_URL, otherwise builds one from the DB_* variables
func dbURL() string {
	if url := os.Getenv("DB_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "mall_loyalty"))
}
