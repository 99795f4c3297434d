// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command samatech is the command line client for the SamaTechnicien identity API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/samatechnicien/samatech/internal/client"
	"github.com/samatechnicien/samatech/internal/client/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := client.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}

	state, err := client.OpenState(cfg.StateDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}

	app := cli.NewApp(cli.Options{
		API:   client.New(cfg.APIURL, state.Slot, nil),
		State: state,
		In:    os.Stdin,
		Out:   os.Stdout,
		ReadPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
		WaitTimeout:  cfg.WaitTimeout,
		PollInterval: cfg.PollInterval,
	})

	return app.Run(ctx, os.Args[1:])
}
