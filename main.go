// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// parley is an AI chat assistant with response post-processing, backed
// by the Groq API. Run with no arguments to start the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/parley/internal/cli"
)

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdServe:
		err = cli.HandleServe(args)
	case cli.CmdList:
		err = cli.HandleList(args)
	case cli.CmdShow:
		err = cli.HandleShow(args)
	case cli.CmdExport:
		err = cli.HandleExport(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
		if len(args.Raw) > 0 {
			fmt.Fprintf(os.Stderr, "\nunknown command: %s\n", args.Raw[0])
			os.Exit(cli.ExitUsageError)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
