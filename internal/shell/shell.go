// Package shell provides the interactive boat type lookup prompt.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/klytics/boatkit/internal/config"
	"github.com/klytics/boatkit/internal/enrich"
	"github.com/klytics/boatkit/internal/progress"
)

// Describer produces a description for one subject.
type Describer interface {
	Describe(ctx context.Context, subject string) enrich.Result
}

// Session is one interactive lookup session.
type Session struct {
	Describer   Describer
	HistoryFile string
	Out         io.Writer
	StartTime   time.Time

	history []string
	lookups int
}

// NewSession creates a session that keeps its history under the config directory.
func NewSession(d Describer) *Session {
	histFile := filepath.Join(config.Dir(), "ask_history")
	os.MkdirAll(filepath.Dir(histFile), 0755)

	return &Session{
		Describer:   d,
		HistoryFile: histFile,
		Out:         os.Stdout,
		StartTime:   time.Now(),
	}
}

// Run starts the prompt loop. It returns on 'exit', Ctrl+D or Ctrl+C.
func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "boat> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(readline.PcItem("help"), readline.PcItem("history"), readline.PcItem("exit")),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(s.Out, "Type a boat type to look it up, 'help' for commands, 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if done := s.Eval(ctx, line); done {
			break
		}
	}

	fmt.Fprintf(s.Out, "\nSession ended. %d lookups in %s.\n", s.lookups, formatDuration(time.Since(s.StartTime)))
	return nil
}

// Eval handles one line of input and reports whether the session should end.
func (s *Session) Eval(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	s.history = append(s.history, line)

	switch line {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprintln(s.Out, "  <boat type>  describe a boat type")
		fmt.Fprintln(s.Out, "  history      show what was asked this session")
		fmt.Fprintln(s.Out, "  exit         leave the prompt")
	case "history":
		for i, h := range s.history {
			fmt.Fprintf(s.Out, "  %d  %s\n", i+1, h)
		}
	default:
		s.lookup(ctx, line)
	}
	return false
}

func (s *Session) lookup(ctx context.Context, subject string) {
	spin := progress.NewSpinner("Asking about " + subject + "...")
	spin.Start()
	res := s.Describer.Describe(ctx, subject)
	spin.Stop()

	s.lookups++
	if res.Degraded {
		fmt.Fprintln(s.Out, color.YellowString(res.Description))
		return
	}
	fmt.Fprintln(s.Out, res.Description)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, sec)
}
