package attendance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mattn/go-isatty"
)

var ErrNotAnImage = errors.New("captured file is not an image")

// StaticLocator reports a fixed position, standing in for a GPS fix on
// machines that have none.
type StaticLocator struct {
	Granted  bool
	Position Coordinate
}

func (l StaticLocator) RequestPermission(context.Context) (bool, error) {
	return l.Granted, nil
}

func (l StaticLocator) CurrentPosition(context.Context) (Coordinate, error) {
	return l.Position, nil
}

// FileCamera "captures" by reading an image file. Permission is granted when
// the file exists and can be opened.
type FileCamera struct {
	Path string
}

func (c FileCamera) RequestPermission(context.Context) (bool, error) {
	if c.Path == "" {
		return false, nil
	}
	f, err := os.Open(c.Path)
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, f.Close()
}

func (c FileCamera) Capture(context.Context) (*Photo, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, mt.String())
	}
	return &Photo{Data: data, MIMEType: mt.String()}, nil
}

// TerminalBiometrics asks the person at the terminal to confirm. Without an
// interactive terminal there is no "hardware" to prompt on. In is shared with
// any other prompts reading the same terminal.
type TerminalBiometrics struct {
	In  *bufio.Reader
	Out io.Writer
	Fd  uintptr
}

func (b TerminalBiometrics) HasHardware(context.Context) (bool, error) {
	return isatty.IsTerminal(b.Fd) || isatty.IsCygwinTerminal(b.Fd), nil
}

func (b TerminalBiometrics) IsEnrolled(ctx context.Context) (bool, error) {
	return b.HasHardware(ctx)
}

func (b TerminalBiometrics) Authenticate(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(b.Out, "%s [y/N]: ", prompt)
	line, err := b.In.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
