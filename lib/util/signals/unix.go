//go:build !windows

package signals

import (
	"os"
	"os/signal"
	"syscall"
)

func notify() {
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}

func route(sig os.Signal) {
	switch sig {
	case syscall.SIGHUP:
		reload.dispatch()
	case syscall.SIGINT, syscall.SIGTERM:
		interrupt.dispatch()
	}
}
