package utils

import (
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Confirm asks a yes/no question on the given streams. Anything but "y" counts as no.
func Confirm(label string, in io.Reader, out io.Writer) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     io.NopCloser(in),
		Stdout:    nopWriteCloser{out},
	}

	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	default:
		return false, fmt.Errorf("running confirmation prompt: %w", err)
	}
}
