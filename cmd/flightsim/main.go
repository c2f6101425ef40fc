// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	log "github.com/sirupsen/logrus"

	"github.com/cuinspace/flightsim/flight/display"
	"github.com/cuinspace/flightsim/flight/event"
	"github.com/cuinspace/flightsim/flight/logging"
	"github.com/cuinspace/flightsim/flight/manager"
	"github.com/cuinspace/flightsim/flight/scenario"
	"github.com/cuinspace/flightsim/flight/system"
)

type options struct {
	LogLevel       string `long:"log-level" default:"info" description:"log level"`
	LogFile        string `long:"log-file" description:"write logs to this file instead of stderr"`
	Scenario       string `long:"scenario" description:"path to a TOML scenario file; the built-in flight when omitted"`
	Plain          bool   `long:"plain" description:"print display frames sequentially instead of the in-place TUI"`
	Quiet          bool   `long:"quiet" description:"disable the display"`
	TimeScale      int    `long:"time-scale" default:"1" description:"divide every simulated delay by this factor"`
	PollIntervalMs int    `long:"poll-interval-ms" default:"10" description:"manager idle poll interval"`
	CycleWaitMs    int    `long:"cycle-wait-ms" default:"500" description:"pause between system cycles"`
	RetryWaitMs    int    `long:"retry-wait-ms" default:"500" description:"pause between blocked-phase retries"`
	LowMultiplier  int    `long:"low-multiplier" default:"2" description:"low-stock threshold as a multiple of a recipe's input amount"`
	HighMultiplier int    `long:"high-multiplier" default:"5" description:"high-stock threshold as a multiple of a recipe's input amount"`
}

func main() {
	opts := getCLIArgs()
	logging.SetLogLevel(opts.LogLevel)
	setLogOutput(opts)

	sc := loadScenario(opts.Scenario)

	queue := event.NewQueue()
	storage, systems, err := sc.Build(queue, system.Config{
		CycleWait:      time.Duration(opts.CycleWaitMs) * time.Millisecond,
		RetryWait:      time.Duration(opts.RetryWaitMs) * time.Millisecond,
		LowMultiplier:  opts.LowMultiplier,
		HighMultiplier: opts.HighMultiplier,
		TimeScale:      opts.TimeScale,
	}, nil)
	if err != nil {
		log.WithError(err).Fatal("Failed to build scenario")
	}

	mgrCfg := manager.Config{
		PollInterval:    time.Duration(opts.PollIntervalMs) * time.Millisecond,
		LifeCritical:    sc.Params.LifeCritical,
		MissionDistance: sc.Params.MissionDistance,
		TimeScale:       opts.TimeScale,
	}

	mgr := manager.New(storage, queue, mgrCfg, nil, nil)
	for _, sys := range systems {
		mgr.Register(sys)
	}

	var console *display.Console
	if !opts.Quiet {
		console = display.NewConsole(mgr, display.Options{Out: os.Stdout, Plain: opts.Plain})
		mgr.AttachSink(console)
	}

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupted
		mgr.Stop("interrupted")
	}()

	if console != nil {
		go console.Run()
	}

	var g errgroup.Group
	g.Go(func() error {
		mgr.Run()
		return nil
	})
	for _, sys := range systems {
		sys := sys
		g.Go(func() error {
			sys.Run()
			return nil
		})
	}
	_ = g.Wait()

	if console != nil {
		console.Stop()
	}

	fmt.Printf("=> Total Distance Travelled: %d furlongs.\n", mgr.FinalDistance())
}

func getCLIArgs() options {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}
		log.WithError(err).Fatal("Failed to parse command line arguments:", os.Args)
	}
	return opts
}

func setLogOutput(opts options) {
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).Fatal("Failed to open log file")
		}
		logging.SetOutput(f)
		return
	}
	// The TUI owns the terminal; interleaved log lines would tear it.
	if !opts.Quiet && !opts.Plain {
		logging.SetOutput(io.Discard)
	}
}

func loadScenario(path string) *scenario.Scenario {
	if path == "" {
		return scenario.Default()
	}
	sc, err := scenario.Load(path)
	if err != nil {
		log.WithError(err).Fatal("Failed to load scenario")
	}
	return sc
}
