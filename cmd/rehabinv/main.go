package main

import (
	"os"
	"strings"

	"rehabinv-cli/internal/cli"
)

func isItemID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "item-") && len(s) > len("item-")
}

// rewriteDirectItemLookupArgs turns `rehabinv <item-id>` into
// `rehabinv items show <item-id>`. Persistent flags may come first, so it
// looks for the first positional token rather than argv[1].
func rewriteDirectItemLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":      true,
		"--backend":  true,
		"--api-url":  true,
		"--log":      true,
		"--env-file": true,
		"--format":   true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isItemID(argv[i+1]) {
				return spliceShow(argv, i+1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isItemID(a) {
			return spliceShow(argv, i)
		}
		return argv
	}
	return argv
}

func spliceShow(argv []string, at int) []string {
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:at]...)
	out = append(out, "items", "show")
	return append(out, argv[at:]...)
}

func main() {
	os.Args = rewriteDirectItemLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
