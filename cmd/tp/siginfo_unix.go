//go:build !darwin && !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

func trapSigInfo() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	go reportStatus(ch)
}
