package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tajious/rollcall/internal/attendance"
)

func (c *cli) runAttend(ctx context.Context, args []string) error {
	fs := c.newFlagSet("attend")
	var (
		mode  = fs.String("mode", "photo", "photo or biometric")
		photo = fs.String("photo", c.cfg.Attendance.PhotoPath, "image file used as the camera capture")
		skip  = fs.Bool("skip", false, "continue without marking attendance")
	)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	screen := attendance.NewScreen(
		attendance.StaticLocator{
			Granted: c.cfg.Attendance.LocationGranted,
			Position: attendance.Coordinate{
				Latitude:  c.cfg.Attendance.Latitude,
				Longitude: c.cfg.Attendance.Longitude,
			},
		},
		attendance.FileCamera{Path: *photo},
		attendance.TerminalBiometrics{In: c.prompt.r, Out: c.out, Fd: os.Stdin.Fd()},
		c.log,
	)

	var (
		res *attendance.Result
		err error
	)
	switch {
	case *skip:
		res = screen.Skip()
	case *mode == "photo":
		res, err = screen.CheckInWithPhoto(ctx)
	case *mode == "biometric":
		res, err = screen.CheckInWithBiometrics(ctx)
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}

	var perr *attendance.PlatformError
	if errors.As(err, &perr) {
		return fmt.Errorf("%s: %s", perr.Title, perr.Message)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s\n%s\n", res.Title, res.Message)
	if res.Photo != nil {
		fmt.Fprintf(c.out, "Photo: %s, %d bytes\n", res.Photo.MIMEType, len(res.Photo.Data))
	}
	return nil
}
