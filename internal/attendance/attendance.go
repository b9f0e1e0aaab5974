// Package attendance runs the check-in sequence against on-device
// capabilities. Nothing captured here is sent anywhere.
package attendance

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tajious/rollcall/internal/inflight"
)

type Coordinate struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinate) String() string {
	return fmt.Sprintf("Lat: %.5f, Lng: %.5f", c.Latitude, c.Longitude)
}

type Photo struct {
	Data     []byte
	MIMEType string
}

type Locator interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (Coordinate, error)
}

type Camera interface {
	RequestPermission(ctx context.Context) (bool, error)
	Capture(ctx context.Context) (*Photo, error)
}

type Biometrics interface {
	HasHardware(ctx context.Context) (bool, error)
	IsEnrolled(ctx context.Context) (bool, error)
	Authenticate(ctx context.Context, prompt string) (bool, error)
}

// PlatformError ends a check-in: a denied permission, missing hardware, or a
// failed capture. Title and Message are what the user is shown.
type PlatformError struct {
	Title   string
	Message string
	Err     error
}

func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Message, e.Err)
	}
	return e.Title + ": " + e.Message
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

type Result struct {
	Title    string
	Message  string
	Location Coordinate
	Photo    *Photo
}

const (
	biometricPrompt = "Confirm your identity to mark attendance"
	skipMessage     = "You have chosen to continue without marking attendance."
)

type Screen struct {
	locator    Locator
	camera     Camera
	biometrics Biometrics
	log        zerolog.Logger
	guard      inflight.Group
}

func NewScreen(locator Locator, camera Camera, biometrics Biometrics, log zerolog.Logger) *Screen {
	return &Screen{
		locator:    locator,
		camera:     camera,
		biometrics: biometrics,
		log:        log,
	}
}

// CheckInWithPhoto reads the location and captures a still from the camera.
func (s *Screen) CheckInWithPhoto(ctx context.Context) (*Result, error) {
	return inflight.Value(ctx, &s.guard, "check-in:photo", func(ctx context.Context) (*Result, error) {
		loc, err := s.locate(ctx)
		if err != nil {
			return nil, err
		}
		if s.camera == nil {
			return nil, &PlatformError{Title: "Camera unavailable", Message: "Camera access is required."}
		}
		granted, err := s.camera.RequestPermission(ctx)
		if err != nil {
			return nil, &PlatformError{Title: "Error", Message: "Could not verify. Please try again.", Err: err}
		}
		if !granted {
			return nil, &PlatformError{Title: "Permission Denied", Message: "Camera access is required."}
		}
		photo, err := s.camera.Capture(ctx)
		if err != nil {
			return nil, &PlatformError{Title: "Error", Message: "Could not verify. Please try again.", Err: err}
		}

		s.log.Info().Float64("lat", loc.Latitude).Float64("lng", loc.Longitude).
			Str("mime", photo.MIMEType).Int("bytes", len(photo.Data)).Msg("photo captured")
		return &Result{
			Title:    "Success",
			Message:  "Attendance marked.\n" + loc.String(),
			Location: loc,
			Photo:    photo,
		}, nil
	})
}

// CheckInWithBiometrics reads the location and runs the device biometric
// challenge.
func (s *Screen) CheckInWithBiometrics(ctx context.Context) (*Result, error) {
	return inflight.Value(ctx, &s.guard, "check-in:biometric", func(ctx context.Context) (*Result, error) {
		loc, err := s.locate(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.challenge(ctx); err != nil {
			return nil, err
		}

		s.log.Info().Float64("lat", loc.Latitude).Float64("lng", loc.Longitude).Msg("biometric check-in")
		return &Result{
			Title:    "Success",
			Message:  "Attendance marked.\n" + loc.String(),
			Location: loc,
		}, nil
	})
}

// Skip continues without marking attendance.
func (s *Screen) Skip() *Result {
	return &Result{Title: "Skipped", Message: skipMessage}
}

func (s *Screen) locate(ctx context.Context) (Coordinate, error) {
	if s.locator == nil {
		return Coordinate{}, &PlatformError{Title: "Permission required", Message: "Location permission is needed for attendance."}
	}
	granted, err := s.locator.RequestPermission(ctx)
	if err != nil {
		return Coordinate{}, &PlatformError{Title: "Error", Message: "Something went wrong during attendance.", Err: err}
	}
	if !granted {
		return Coordinate{}, &PlatformError{Title: "Permission required", Message: "Location permission is needed for attendance."}
	}
	loc, err := s.locator.CurrentPosition(ctx)
	if err != nil {
		return Coordinate{}, &PlatformError{Title: "Error", Message: "Something went wrong during attendance.", Err: err}
	}
	return loc, nil
}

func (s *Screen) challenge(ctx context.Context) error {
	unavailable := &PlatformError{
		Title:   "Biometrics not available",
		Message: "This device does not have Face ID / biometric enrollment.",
	}
	if s.biometrics == nil {
		return unavailable
	}
	hasHardware, err := s.biometrics.HasHardware(ctx)
	if err != nil {
		unavailable.Err = err
		return unavailable
	}
	enrolled, err := s.biometrics.IsEnrolled(ctx)
	if err != nil {
		unavailable.Err = err
		return unavailable
	}
	if !hasHardware || !enrolled {
		return unavailable
	}
	ok, err := s.biometrics.Authenticate(ctx, biometricPrompt)
	if err != nil || !ok {
		return &PlatformError{
			Title:   "Authentication failed",
			Message: "Face ID / biometrics failed. Try again.",
			Err:     err,
		}
	}
	return nil
}
