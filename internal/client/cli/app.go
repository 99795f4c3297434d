// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cli implements the samatech command line client.

Commands:
  - login: prompts for email and password, reconciles, mirrors the Session locally
  - logout: clears the slot on the server and locally
  - whoami: prints the Session the server holds for this slot
  - wait-link: requests a confirmation email, then waits until clicking the link
    signs this slot in
*/
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samatechnicien/samatech/internal/client"
	"github.com/samatechnicien/samatech/internal/platform/apperr"
	"github.com/samatechnicien/samatech/internal/users/session"
)

// Exit codes returned by Run.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// PasswordReader reads a secret without echoing it.
type PasswordReader func() ([]byte, error)

// App wires one API client to one local state directory.
type App struct {
	api          *client.Client
	state        *client.State
	in           *bufio.Reader
	out          io.Writer
	readPassword PasswordReader
	waitTimeout  time.Duration
	pollInterval time.Duration
}

// Options configure an App.
type Options struct {
	API          *client.Client
	State        *client.State
	In           io.Reader
	Out          io.Writer
	ReadPassword PasswordReader
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// NewApp builds an App from options.
func NewApp(options Options) *App {
	return &App{
		api:          options.API,
		state:        options.State,
		in:           bufio.NewReader(options.In),
		out:          options.Out,
		readPassword: options.ReadPassword,
		waitTimeout:  options.WaitTimeout,
		pollInterval: options.PollInterval,
	}
}

// Run executes one command and returns the process exit code.
func (app *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		app.usage()
		return ExitUsage
	}

	var err error
	switch args[0] {
	case "login":
		err = app.login(ctx)
	case "logout":
		err = app.logout(ctx)
	case "whoami":
		err = app.whoami(ctx)
	case "wait-link":
		err = app.waitLink(ctx, args[1:])
	default:
		app.usage()
		return ExitUsage
	}

	if err != nil {
		app.printError(err)
		return ExitFailure
	}
	return ExitOK
}

func (app *App) usage() {
	fmt.Fprintln(app.out, "usage: samatech <login|logout|whoami|wait-link [email]>")
}

// # Commands

func (app *App) login(ctx context.Context) error {
	email, err := app.prompt("Email")
	if err != nil {
		return err
	}

	fmt.Fprint(app.out, "Password: ")
	password, err := app.readPassword()
	fmt.Fprintln(app.out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	result, err := app.api.Login(ctx, email, string(password))
	clear(password)
	if err != nil {
		return err
	}

	if err := app.state.Save(ctx, result.Session); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "Signed in as %s (%s). Destination: %s\n",
		result.Session.FullName, result.Session.Role, result.Destination)
	return nil
}

func (app *App) logout(ctx context.Context) error {
	if err := app.api.Logout(ctx); err != nil {
		return err
	}
	if err := app.state.Save(ctx, nil); err != nil {
		return err
	}
	fmt.Fprintln(app.out, "Signed out.")
	return nil
}

func (app *App) whoami(ctx context.Context) error {
	current, err := app.api.Session(ctx)
	if err != nil {
		return err
	}
	if err := app.state.Save(ctx, current); err != nil {
		return err
	}

	if current == nil {
		fmt.Fprintln(app.out, "Not signed in.")
		return nil
	}
	app.printSession(current)
	return nil
}

func (app *App) waitLink(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = strings.TrimSpace(args[0])
	} else {
		prompted, err := app.prompt("Email")
		if err != nil {
			return err
		}
		email = prompted
	}

	if err := app.api.ResendVerification(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Confirmation email requested for %s. Waiting for the link to be opened...\n", email)

	if app.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.waitTimeout)
		defer cancel()
	}

	current, err := app.api.WaitForSession(ctx, app.pollInterval)
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("timed out waiting for the confirmation link")
	}
	if err != nil {
		return err
	}

	if err := app.state.Save(ctx, current); err != nil {
		return err
	}
	app.printSession(current)
	return nil
}

// # Output

func (app *App) prompt(label string) (string, error) {
	fmt.Fprintf(app.out, "%s: ", label)
	line, err := app.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func (app *App) printSession(current *session.Session) {
	fmt.Fprintf(app.out, "%s <%s>\n", current.FullName, current.Email)
	fmt.Fprintf(app.out, "  role:     %s\n", current.Role)
	fmt.Fprintf(app.out, "  verified: %t\n", current.EmailVerified)
	if current.City != "" {
		fmt.Fprintf(app.out, "  city:     %s\n", current.City)
	}
	fmt.Fprintf(app.out, "  slot:     %s\n", current.Slot)
}

func (app *App) printError(err error) {
	appErr := apperr.As(err)
	if appErr == nil {
		fmt.Fprintf(app.out, "error: %v\n", err)
		return
	}

	fmt.Fprintf(app.out, "error: %s (%s)\n", appErr.Message, appErr.Code)
	for _, detail := range appErr.Details {
		fmt.Fprintf(app.out, "  %s: %s\n", detail.Field, detail.Message)
	}
	if appErr.Hint == apperr.HintResendVerification {
		fmt.Fprintln(app.out, "hint: run `samatech wait-link` to get a new confirmation email")
	}
}
