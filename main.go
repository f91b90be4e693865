/*
This is an example of application that will use the
engine package to render the viking room
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/toybricks/engine"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/testbed"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the engine configuration file")
	flag.Parse()

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		core.LogError("failed to load configuration: %s", err)
		os.Exit(1)
	}

	e, err := engine.New(testbed.NewTestGame(cfg).Game)
	if err != nil {
		core.LogError(err.Error())
		os.Exit(1)
	}

	if err := e.Initialize(); err != nil {
		core.LogError("engine initialization failed: %s", err)
		_ = e.Shutdown()
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		sig := <-sigCh
		core.LogInfo("received %s, stopping", sig)
		e.Stop()
	}()

	runErr := e.Run()
	if runErr != nil {
		core.LogError("engine stopped with error: %s", runErr)
	}
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
