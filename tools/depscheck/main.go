package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

const module = "github.com/awesomecuber/tron"

// rules forbid imports that would invert the layering: the simulation
// core stays pure, the wire and signaling layers stay ignorant of each
// other, and the logging layer sits below everything under internal.
var rules = []struct {
	scope     string
	forbidden []string
}{
	{scope: module + "/internal/game", forbidden: []string{module + "/"}},
	{scope: module + "/logging", forbidden: []string{module + "/internal"}},
	{scope: module + "/internal/transport", forbidden: []string{
		module + "/internal/game",
		module + "/internal/rollback",
		module + "/internal/signal",
		module + "/internal/app",
	}},
	{scope: module + "/internal/rollback", forbidden: []string{
		module + "/internal/signal",
		module + "/internal/app",
	}},
	{scope: module + "/internal/signal", forbidden: []string{
		module + "/internal/game",
		module + "/internal/rollback",
		module + "/internal/transport",
		module + "/internal/app",
	}},
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	decoder := json.NewDecoder(bytes.NewReader(output))

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
			os.Exit(1)
		}

		for _, rule := range rules {
			if !strings.HasPrefix(pkg.ImportPath, rule.scope) {
				continue
			}
			for _, imp := range pkg.Imports {
				for _, prefix := range rule.forbidden {
					if strings.HasPrefix(imp, prefix) {
						violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					}
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}
