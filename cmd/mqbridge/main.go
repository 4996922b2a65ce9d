package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maquettehq/mqbridge/internal/bootstrap"
	"github.com/maquettehq/mqbridge/internal/clock"
	"github.com/maquettehq/mqbridge/internal/config"
	"github.com/maquettehq/mqbridge/internal/probe"
	"github.com/maquettehq/mqbridge/internal/relay"
	"github.com/maquettehq/mqbridge/internal/socket"
	"github.com/maquettehq/mqbridge/internal/wire"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "launch" {
		os.Exit(runLaunch(args[1:]))
	}
	os.Exit(runBridge(args))
}

// runBridge covers the two socket-backed modes: the continuous relay
// and, with --ping, the one-shot probe.
func runBridge(args []string) int {
	ping := false
	for _, arg := range args {
		if arg == "--ping" || arg == "-ping" {
			ping = true
		}
	}

	env, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mqbridge: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := socket.New(env.SocketURL, socket.DefaultDialer(), env.Backoff(), clock.Real())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Fprintln(os.Stderr, "mqbridge: shutting down")
		mgr.Shutdown()
		cancel()
	}()

	if ping {
		if err := probe.Run(ctx, mgr, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "mqbridge: probe: %v\n", err)
			return 1
		}
		return 0
	}

	policy := relay.DropWhileDisconnected
	if env.SendPolicy == config.SendPolicyQueue {
		policy = relay.QueueWhileDisconnected
	}
	r := relay.New(mgr, os.Stdin, wire.NewOutput(os.Stdout), policy, env.QueueSize)
	if err := r.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mqbridge: %v\n", err)
		return 1
	}
	return 0
}

// runLaunch starts the Maquette worker under the bootstrap proxy. The
// worker argv comes from everything after --, falling back to the
// [worker] table of config.toml.
func runLaunch(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mqbridge: %v\n", err)
		return 2
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "mqbridge: invalid config: %v\n", err)
		return 2
	}

	command := workerArgv(args)
	if len(command) == 0 {
		if !cfg.Worker.IsConfigured() {
			fmt.Fprintln(os.Stderr, "mqbridge: no worker command; pass one after -- or set [worker] in config.toml")
			return 2
		}
		command = append([]string{cfg.Worker.Command}, cfg.Worker.Args...)
	}
	if err := bootstrap.CheckWorker(command[0], command[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "mqbridge: %v\n", err)
		return 2
	}

	code, err := bootstrap.New(bootstrap.Options{
		Command:    command,
		Env:        cfg.Worker.Env,
		ReadyToken: cfg.Worker.ReadyToken,
		QueueMax:   cfg.Worker.QueueMax,
	}).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mqbridge: %v\n", err)
		return 1
	}
	return code
}

func workerArgv(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			return args[i+1:]
		}
	}
	return nil
}
