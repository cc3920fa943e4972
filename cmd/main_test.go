package main

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

// captureOutput runs fn with os.Stdout and os.Stderr redirected to pipes.
func captureOutput(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	origOut, origErr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outW, errW
	defer func() { os.Stdout, os.Stderr = origOut, origErr }()

	fn()
	outW.Close()
	errW.Close()

	o, _ := io.ReadAll(outR)
	e, _ := io.ReadAll(errR)
	return string(o), string(e)
}

func TestUsageErrorsGoToStderr(t *testing.T) {
	tests := []struct {
		name string
		cmd  subcommands.Command
		args []string
		want string
	}{
		{"update", &updateCmd{}, []string{"extra"}, "no arguments expected"},
		{"quote", &quoteCmd{}, []string{" ", ""}, "at least one symbol expected"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := flag.NewFlagSet(tc.name, flag.ContinueOnError)
			tc.cmd.SetFlags(f)
			if err := f.Parse(tc.args); err != nil {
				t.Fatalf("Parse: %v", err)
			}

			var status subcommands.ExitStatus
			stdout, stderr := captureOutput(t, func() {
				status = tc.cmd.Execute(context.Background(), f)
			})

			if status != subcommands.ExitUsageError {
				t.Errorf("status = %v, want usage error", status)
			}
			if !strings.Contains(stderr, tc.want) {
				t.Errorf("stderr = %q, want %q", stderr, tc.want)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want nothing", stdout)
			}
		})
	}
}
