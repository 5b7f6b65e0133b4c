package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/renatrack/renatrack-client/activity"
	"github.com/renatrack/renatrack-client/consent"
	"github.com/renatrack/renatrack-client/csrf"
	"github.com/renatrack/renatrack-client/events"
	"github.com/renatrack/renatrack-client/gateway"
	"github.com/renatrack/renatrack-client/googleauth"
	"github.com/renatrack/renatrack-client/internal/config"
	"github.com/renatrack/renatrack-client/localstate"
	"github.com/renatrack/renatrack-client/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running client: %s\n", err)
	}
	log.Printf("Client stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname("Renatrack")

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	csrfStore := csrf.NewStore()
	bus := events.NewBus()

	api, err := gateway.NewClient(cfg, csrfStore, gateway.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("gateway.NewClient: %w", err)
	}

	state, err := localstate.Open(statePath())
	if err != nil {
		return fmt.Errorf("localstate.Open: %w", err)
	}
	defer state.Close()

	mgr, err := session.New(session.Deps{API: api, CSRF: csrfStore, Hints: state, Bus: bus}, cfg, session.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}
	defer mgr.Close()

	gate, err := consent.NewGate(mgr)
	if err != nil {
		return fmt.Errorf("consent.NewGate: %w", err)
	}

	monitor, release := activity.ForManager(mgr, cfg.GetActivityDebounce())
	defer release()

	unsubscribe := mgr.Subscribe(func(st session.State) {
		if st.IsAuthenticated {
			if err := state.CacheIdentity(st.User, st.Profile); err != nil {
				logger.Warn().Err(err).Msg("caching identity failed")
			}
		}
		if st.ShowSessionExpiredModal {
			fmt.Println("!! your session has expired; type 'dismiss' and log in again")
		}
	})
	defer unsubscribe()

	if user, _, err := state.CachedIdentity(); err == nil && user != nil {
		fmt.Printf("last signed in as %s\n", user.Email)
	}

	ctx := context.Background()
	if mgr.ValidateOnStartup(ctx) {
		fmt.Println("session restored")
	} else {
		fmt.Println("not signed in")
	}

	return commandLoop(ctx, cfg, mgr, gate, monitor)
}

func commandLoop(ctx context.Context, cfg config.Config, mgr *session.Manager, gate *consent.Gate, monitor *activity.Monitor) error {
	fmt.Println("commands: login <email> <password> | google <code> | register <email> <password> <name> | status | accept | dismiss | logout | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		monitor.Signal(activity.SignalKeyPress)

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "login":
			if len(fields) != 3 {
				fmt.Println("usage: login <email> <password>")
				continue
			}
			if err := mgr.Login(ctx, fields[1], fields[2]); err != nil {
				fmt.Printf("login failed: %s\n", err)
				continue
			}
			afterSignIn(ctx, mgr, gate)

		case "google":
			if len(fields) != 2 {
				fmt.Println("usage: google <authorization-code>")
				continue
			}
			authenticator, err := googleauth.New(ctx, cfg)
			if err != nil {
				fmt.Printf("google auth unavailable: %s\n", err)
				continue
			}
			idToken, err := authenticator.IDTokenFromCode(ctx, fields[1])
			if err != nil {
				fmt.Printf("google exchange failed: %s\n", err)
				continue
			}
			if err := mgr.LoginWithGoogle(ctx, idToken); err != nil {
				fmt.Printf("google login failed: %s\n", err)
				continue
			}
			afterSignIn(ctx, mgr, gate)

		case "register":
			if len(fields) < 4 {
				fmt.Println("usage: register <email> <password> <full name>")
				continue
			}
			fullName := strings.Join(fields[3:], " ")
			if err := mgr.Register(ctx, fields[1], fields[2], fullName); err != nil {
				fmt.Printf("registration failed: %s\n", err)
				continue
			}
			afterSignIn(ctx, mgr, gate)

		case "status":
			printStatus(mgr.Snapshot())

		case "accept":
			if err := gate.Accept(ctx); err != nil {
				fmt.Printf("could not record acceptance: %s\n", err)
				continue
			}
			fmt.Println("terms accepted")

		case "dismiss":
			mgr.DismissSessionModal()
			fmt.Println("signed out locally")

		case "logout":
			mgr.Logout(ctx)
			fmt.Println("signed out")

		case "quit", "exit":
			return nil

		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func afterSignIn(ctx context.Context, mgr *session.Manager, gate *consent.Gate) {
	st := mgr.Snapshot()
	fmt.Printf("signed in as %s\n", st.User.Email)
	if gate.Visible() {
		fmt.Println("you must accept the terms of use before continuing: type 'accept' (or 'logout' to decline)")
	}
}

func printStatus(st session.State) {
	if !st.IsAuthenticated {
		fmt.Println("not signed in")
		return
	}
	fmt.Printf("signed in as %s\n", st.User.Email)
	if st.SessionExpiresAt != nil {
		fmt.Printf("session expires %s (%s from now)\n", st.SessionExpiresAt.Format(time.RFC3339), time.Until(*st.SessionExpiresAt).Round(time.Second))
	}
	if st.ShowConsentModal {
		fmt.Println("terms acceptance pending")
	}
	if st.ShowSessionExpiredModal {
		fmt.Println("session expired; re-authentication required")
	}
}

func configPath() string {
	if path := os.Getenv("RENATRACK_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".renatrack", "config.toml")
}

func statePath() string {
	if path := os.Getenv("RENATRACK_STATE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "state.db"
	}
	dir := filepath.Join(home, ".renatrack")
	_ = os.MkdirAll(dir, 0o700)
	return filepath.Join(dir, "state.db")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
