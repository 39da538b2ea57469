// Package confirm asks the user before destructive or status-changing
// operations run. The to-do service never sees it: callers confirm first and
// only then call the service.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Always approves without asking (--yes, or confirm_destructive: false).
type Always struct{}

func (Always) Confirm(context.Context, string) (bool, error) { return true, nil }

var bold = color.New(color.Bold).SprintFunc()

// LinePrompter is the synchronous fallback: it prints the question and reads
// one line. Only "y" or "yes" approve; anything else, including EOF, rejects.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
	// Interactive reports whether In is a terminal. Without one the prompt
	// rejects immediately instead of blocking.
	Interactive bool
}

// Stdio returns a LinePrompter on the process's stdin/stderr.
func Stdio() *LinePrompter {
	fd := os.Stdin.Fd()
	return &LinePrompter{
		In:          os.Stdin,
		Out:         os.Stderr,
		Interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprintf(p.Out, "%s ", bold(question+" [y/N]:"))
	if !p.Interactive {
		fmt.Fprintln(p.Out, "no (stdin is not a terminal; pass --yes)")
		return false, nil
	}

	line, err := readLine(ctx, p.In)
	if err != nil {
		if err == io.EOF {
			fmt.Fprintln(p.Out)
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func readLine(ctx context.Context, rd io.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	// On cancellation the reader goroutine stays blocked until In yields a
	// line or EOF; the buffered channel lets it exit without a receiver.
	go func() {
		line, err := bufio.NewReader(rd).ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}
