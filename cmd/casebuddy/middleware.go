package main

import (
	"errors"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errInternal = errors.New("internal error, see the log for details")

// instrument wraps every RunE in the tree with logging and panic recovery.
func instrument(a *app, cmd *cobra.Command) {
	if cmd.RunE != nil {
		cmd.RunE = recoverRun(a, loggingRun(a, cmd.RunE))
	}
	for _, c := range cmd.Commands() {
		instrument(a, c)
	}
}

// loggingRun logs the command path, outcome and duration. Arguments are never logged;
// they may carry passwords.
func loggingRun(a *app, next func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		err := next(cmd, args)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		a.logger().Debug("command",
			zap.String("command", cmd.CommandPath()),
			zap.String("outcome", outcome),
			zap.Duration("dur", time.Since(start)),
			zap.String("account", a.account),
		)
		return err
	}
}

// recoverRun turns a panic in a command into errInternal.
func recoverRun(a *app, next func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				a.logger().Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("command", cmd.CommandPath()),
				)
				err = errInternal
			}
		}()
		return next(cmd, args)
	}
}

func (a *app) logger() *zap.Logger {
	if a.log == nil {
		return zap.NewNop()
	}
	return a.log
}
