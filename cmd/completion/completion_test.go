package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func testRootCmd() *cobra.Command {
	root := &cobra.Command{Use: "boatkit"}
	root.AddCommand(&cobra.Command{Use: "ask", Short: "Look up boat types", Run: func(*cobra.Command, []string) {}})
	root.AddCommand(&cobra.Command{Use: "watch", Short: "Watch directories", Run: func(*cobra.Command, []string) {}})
	root.AddCommand(NewCommand(root))
	return root
}

func generate(t *testing.T, shell string) string {
	t.Helper()
	root := testRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"completion", shell})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion %s: %v", shell, err)
	}
	return buf.String()
}

func TestCompletionScripts(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "__start_boatkit"},
		{"zsh", "compdef"},
		{"fish", "complete -c boatkit"},
		{"powershell", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			if out := generate(t, tt.shell); !strings.Contains(out, tt.want) {
				t.Errorf("%s completion should contain %q", tt.shell, tt.want)
			}
		})
	}
}

func TestCompletionRejectsUnknownShell(t *testing.T) {
	root := testRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"completion", "tcsh"})
	if err := root.Execute(); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
