package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tajious/rollcall/internal/credflow"
	"github.com/tajious/rollcall/internal/models"
	"github.com/tajious/rollcall/internal/session"
	"github.com/tajious/rollcall/internal/validation"
)

func (c *cli) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func (c *cli) runLogin(ctx context.Context, args []string) error {
	fs := c.newFlagSet("login")
	var (
		mobile = fs.String("mobile", "", "10 digit mobile number")
		mpin   = fs.String("mpin", "", "4 or 6 digit MPIN")
	)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	m, err := c.prompt.valueOr(*mobile, "Mobile number")
	if err != nil {
		return err
	}
	pin, err := c.prompt.valueOr(*mpin, "MPIN")
	if err != nil {
		return err
	}

	flow := credflow.New(c.api, c.auth, c.log)
	res, err := flow.Login(ctx, m, pin)
	if err != nil {
		return err
	}

	msg := res.Message
	if msg == "" {
		msg = "Login successful"
	}
	fmt.Fprintln(c.out, msg)
	if u := c.sessionUser(); u != nil {
		fmt.Fprintf(c.out, "Welcome, %s\n", u.Name)
	}
	return nil
}

// runForgotMPIN walks the OTP reset interactively. A wrong code or a rejected
// MPIN is reported and asked for again.
func (c *cli) runForgotMPIN(ctx context.Context, args []string) error {
	fs := c.newFlagSet("forgot-mpin")
	mobile := fs.String("mobile", "", "10 digit mobile number")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	m, err := c.prompt.valueOr(*mobile, "Mobile number")
	if err != nil {
		return err
	}

	flow := credflow.New(c.api, c.auth, c.log)
	msg, err := flow.RequestOTP(ctx, m)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)

	for flow.State() == credflow.OTPSent {
		code, err := c.prompt.ask("Enter OTP (r to resend)")
		if err != nil {
			return err
		}
		if code == "r" {
			msg, err = flow.ResendOTP(ctx)
		} else {
			msg, err = flow.VerifyOTP(ctx, code)
		}
		if err != nil {
			fmt.Fprintln(c.out, err)
			continue
		}
		fmt.Fprintln(c.out, msg)
	}

	for flow.State() == credflow.OTPVerified {
		mpin, err := c.prompt.ask("New MPIN")
		if err != nil {
			return err
		}
		confirm, err := c.prompt.ask("Confirm MPIN")
		if err != nil {
			return err
		}
		msg, err = flow.SetMPIN(ctx, mpin, confirm)
		var invalid *validation.Error
		if errors.As(err, &invalid) {
			fmt.Fprintln(c.out, invalid.Message)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, msg)
	}

	fmt.Fprintln(c.out, "Log in with your new MPIN: rollcall login")
	return nil
}

func (c *cli) runLogout() error {
	if err := c.auth.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *cli) runWhoami() error {
	info, err := c.auth.Inspect()
	if err != nil {
		return err
	}

	if u := c.sessionUser(); u != nil {
		fmt.Fprintf(c.out, "Name:    %s\n", u.Name)
		fmt.Fprintf(c.out, "Mobile:  %s\n", u.Mobile)
		if role := u.RoleName(); role != "" {
			fmt.Fprintf(c.out, "Role:    %s\n", role)
		}
	} else {
		fmt.Fprintf(c.out, "Mobile:  %s\n", info.Mobile)
	}

	if !info.ExpiresAt.IsZero() {
		state := "valid"
		if time.Now().After(info.ExpiresAt) {
			state = "expired"
		}
		fmt.Fprintf(c.out, "Session: %s until %s\n", state, info.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

// sessionUser decodes the persisted user payload, or nil when there is none
// or it is not a user record.
func (c *cli) sessionUser() *models.User {
	raw := c.auth.User()
	if len(raw) == 0 {
		return nil
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		c.log.Debug().Err(err).Msg("decode session user")
		return nil
	}
	return &u
}

func (c *cli) requireSession() error {
	if !c.auth.Present() {
		return fmt.Errorf("%w: run rollcall login", session.ErrNoSession)
	}
	return nil
}
