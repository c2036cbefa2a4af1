package main

import (
	"fmt"
	"strings"

	"github.com/osse101/MallLoyalty_Go/internal/config"
)

type DoctorCommand struct{}

func (c *DoctorCommand) Name() string {
	return "doctor"
}

func (c *DoctorCommand) Description() string {
	return "Diagnose environment issues (tools + db)"
}

func (c *DoctorCommand) Run(args []string) error {
	PrintHeader("Running Doctor...")

	hasError := false

	if version, err := getCommandOutput("go", "version"); err == nil {
		PrintSuccess("Go installed: %s", goVersion(version))
	} else {
		PrintError("Go not found! Install from: https://go.dev/dl/")
		hasError = true
	}

	if version, err := getCommandOutput("docker", "--version"); err == nil {
		PrintSuccess("Docker installed: %s", version)
	} else {
		PrintWarning("Docker not found (needed for integration tests)")
	}

	if warnings, err := config.ValidateEnvWithWarnings(); err != nil {
		PrintError("Environment check failed: %v", err)
		hasError = true
	} else {
		for _, w := range warnings {
			PrintWarning("%s", w)
		}
		PrintSuccess("Environment OK")
	}

	if err := pingDB(); err != nil {
		PrintError("Database check failed: %v", err)
		hasError = true
	} else {
		PrintSuccess("Database OK")
	}

	if hasError {
		return fmt.Errorf("doctor found issues")
	}

	PrintSuccess("All systems operational!")
	return nil
}

// goVersion extracts "go1.24.0" from `go version` output
func goVersion(out string) string {
	parts := strings.Fields(out)
	if len(parts) >= 3 {
		return parts[2]
	}
	return out
}
