package main

import (
	"fmt"
	"os"

	"github.com/rusq/escprint/cmd/tp/internal/cfg"
)

// reportStatus prints the status of the running command each time a signal
// arrives on ch.
func reportStatus(ch <-chan os.Signal) {
	for range ch {
		fmt.Fprint(os.Stderr, "ESCPRINT STATUS REPORT\n")
		cfg.SigInfo(os.Stderr)
	}
}
