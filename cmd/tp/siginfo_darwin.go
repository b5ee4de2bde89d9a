package main

import (
	"os"
	"os/signal"
	"syscall"
)

func trapSigInfo() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINFO, syscall.SIGUSR1)
	go reportStatus(ch)
}
