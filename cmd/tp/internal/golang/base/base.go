// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package base defines shared basic pieces of the tp command,
// in particular the Command structure and the exit handling.
package base

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rusq/escprint/cmd/tp/internal/cfg"
)

// A Command is an implementation of a tp command
// like tp receipt or tp image.
type Command struct {
	// Run runs the command.
	// The args are the arguments after the command name.
	Run func(ctx context.Context, cmd *Command, args []string) error

	// UsageLine is the one-line usage message.
	// The words between "tp" and the first flag or argument in the line are taken to be the command name.
	UsageLine string

	// Short is the short description shown in the 'tp help' output.
	Short string

	// Long is the long message shown in the 'tp help <this-command>' output.
	Long string

	// Flag is a set of flags specific to this command.
	Flag flag.FlagSet

	// FlagMask selects the common flags the command omits.
	FlagMask cfg.FlagMask

	// CustomFlags indicates that the command will do its own
	// flag parsing.
	CustomFlags bool

	// PrintFlags makes the help output list the command flags.
	PrintFlags bool

	// Commands lists the available commands and help topics.
	// The order here is the order in which they are printed by 'tp help'.
	// Note that subcommands are in general best avoided.
	Commands []*Command
}

var TpCommand = &Command{
	UsageLine: "tp",
	Long:      `Tp prints receipts, images and text on ESC/POS receipt printers.`,
	// Commands initialized in package main
}

// LongName returns the command's long name: all the words in the usage line between "tp" and a flag or argument,
func (c *Command) LongName() string {
	name := c.UsageLine
	if i := strings.Index(name, " ["); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, " <"); i >= 0 {
		name = name[:i]
	}
	if name == "tp" {
		return ""
	}
	return strings.TrimPrefix(name, "tp ")
}

// Name returns the command's short name: the last word in the usage line before a flag or argument.
func (c *Command) Name() string {
	name := c.LongName()
	if i := strings.LastIndex(name, " "); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func (c *Command) Usage() {
	fmt.Fprintf(os.Stderr, "usage: %s\n", c.UsageLine)
	fmt.Fprintf(os.Stderr, "Run 'tp help %s' for details.\n", c.LongName())
	SetExitStatus(SHelpRequested)
	Exit()
}

// Runnable reports whether the command can be run; otherwise
// it is a documentation pseudo-command.
func (c *Command) Runnable() bool {
	return c.Run != nil
}

// StatusCode is the process exit status.
type StatusCode uint8

const (
	SNoError StatusCode = iota
	SGenericError
	SHelpRequested
	SInvalidParameters
	SApplicationError
	SUserError
	SCancelled
)

var statusNames = map[StatusCode]string{
	SNoError:           "no error",
	SGenericError:      "generic error",
	SHelpRequested:     "help requested",
	SInvalidParameters: "invalid parameters",
	SApplicationError:  "application error",
	SUserError:         "user error",
	SCancelled:         "cancelled",
}

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StatusCode(%d)", uint8(s))
}

var atExitFuncs []func()

// AtExit registers f to be called on Exit, in reverse order.
func AtExit(f func()) {
	atExitFuncs = append(atExitFuncs, f)
}

func Exit() {
	for i := len(atExitFuncs) - 1; i >= 0; i-- {
		atExitFuncs[i]()
	}
	os.Exit(int(exitStatus))
}

var exitStatus = SNoError
var exitMu sync.Mutex

// SetExitStatus sets the exit status, the highest status wins.
func SetExitStatus(n StatusCode) {
	exitMu.Lock()
	if exitStatus < n {
		exitStatus = n
	}
	exitMu.Unlock()
}

func ExitStatus() StatusCode {
	exitMu.Lock()
	defer exitMu.Unlock()
	return exitStatus
}

// Usage is the usage-reporting function, filled in by package main
// but here for reference by other packages.
var Usage func()

// CmdName is the name of the command being run, i.e. "receipt".
var CmdName string
