package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tajious/rollcall/internal/client"
	"github.com/tajious/rollcall/internal/config"
	"github.com/tajious/rollcall/internal/session"
)

// errUsage is returned after usage text has already been printed.
var errUsage = errors.New("usage")

type cli struct {
	cfg    *config.ClientConfig
	auth   *session.Auth
	api    *client.Client
	log    zerolog.Logger
	prompt *prompter
	out    io.Writer
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	auth, err := session.NewAuth(session.NewFileStore(cfg.SessionFile))
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SessionFile).Msg("open session")
	}

	c := &cli{
		cfg:    cfg,
		auth:   auth,
		api:    client.New(cfg.APIURL, auth,
			client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			client.WithLogger(log.Logger),
		),
		log:    log.Logger,
		prompt: newPrompter(os.Stdin, os.Stdout),
		out:    os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return c.runLogin(ctx, args)
	case "forgot-mpin":
		return c.runForgotMPIN(ctx, args)
	case "logout":
		return c.runLogout()
	case "whoami":
		return c.runWhoami()
	case "home":
		return c.runHome(args)
	case "users":
		return c.usersCommand().run(ctx, args)
	case "roles":
		return c.rolesCommand().run(ctx, args)
	case "attend":
		return c.runAttend(ctx, args)
	case "help", "-h", "--help":
		usage()
		return nil
	}
	usage()
	return errUsage
}

func usage() {
	fmt.Fprintln(os.Stderr, "rollcall: staff attendance and administration")
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  rollcall login [-mobile 9876543210] [-mpin 1234]")
	fmt.Fprintln(os.Stderr, "  rollcall forgot-mpin [-mobile 9876543210]")
	fmt.Fprintln(os.Stderr, "  rollcall logout")
	fmt.Fprintln(os.Stderr, "  rollcall whoami")
	fmt.Fprintln(os.Stderr, "  rollcall home [-q filter]")
	fmt.Fprintln(os.Stderr, "  rollcall users list [-deleted] [-q filter]")
	fmt.Fprintln(os.Stderr, "  rollcall users add -name N -mobile M [-status active|inactive] [-role name|id]")
	fmt.Fprintln(os.Stderr, "  rollcall users edit -id ID [-name N] [-mobile M] [-status S] [-role R]")
	fmt.Fprintln(os.Stderr, "  rollcall users toggle|delete|restore|purge -id ID")
	fmt.Fprintln(os.Stderr, "  rollcall roles list [-deleted] [-q filter]")
	fmt.Fprintln(os.Stderr, "  rollcall roles add -name N [-description D] [-status S]")
	fmt.Fprintln(os.Stderr, "  rollcall roles edit -id ID [-name N] [-description D] [-status S]")
	fmt.Fprintln(os.Stderr, "  rollcall roles toggle|delete|restore|purge -id ID")
	fmt.Fprintln(os.Stderr, "  rollcall attend [-mode photo|biometric] [-photo file] [-skip]")
}
