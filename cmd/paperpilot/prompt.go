package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
)

// spinnerOutput returns stderr when a human is watching it.
func spinnerOutput() io.Writer {
	if os.Getenv("CI") != "" || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return os.Stderr
}

// promptConfirm asks on the terminal with promptui.
type promptConfirm struct{}

func (promptConfirm) Confirm(label string) (bool, error) {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// lineConfirm reads the answer from a line scanner, for the shell.
type lineConfirm struct {
	in  *bufio.Scanner
	out io.Writer
}

func (c lineConfirm) Confirm(label string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", label)
	if !c.in.Scan() {
		return false, c.in.Err()
	}
	answer := strings.TrimSpace(strings.ToLower(c.in.Text()))
	return answer == "y" || answer == "yes", nil
}

// yesConfirm confirms everything, for --yes.
type yesConfirm struct{}

func (yesConfirm) Confirm(string) (bool, error) { return true, nil }

func promptText(label string, validate func(string) error) (string, error) {
	p := promptui.Prompt{Label: label, Validate: validate}
	return p.Run()
}

func promptPassword(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(s string) error {
			if s == "" {
				return errors.New("password is required")
			}
			return nil
		},
	}
	return p.Run()
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// readSecret reads one line from r, for --password-stdin.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
