package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/omzlo/canbridge/clog"
	"github.com/omzlo/canbridge/cmd/config"
	"github.com/omzlo/canbridge/controllers"
	"github.com/omzlo/canbridge/models/flexcan"
	"github.com/omzlo/canbridge/models/helpers"
)

var (
	optConfig       string
	optLogLevel     uint
	optLogFile      string
	optDuration     int
	optPollInterval int
	optPeerInterval int
	optTrace        bool
)

func setupFlags() {
	flag.StringVar(&optConfig, "config", "", "Configuration file (default: ./"+config.CONFIG_FILE+" or ~/."+config.CONFIG_FILE+").")
	flag.UintVar(&optLogLevel, "log-level", config.Settings.LogLevel, "Log level (0=all, 1=debug and more, 2=info and more, 3=warnings and errors, 4=errors only, 5=nothing)")
	flag.StringVar(&optLogFile, "log-file", config.Settings.LogFile, "Also write log to this file.")
	flag.IntVar(&optDuration, "duration", 0, "Stop after this many seconds (default: 0, run until interrupted).")
	flag.IntVar(&optPollInterval, "interval", 1, "Idle delay between polling passes, in milliseconds.")
	flag.IntVar(&optPeerInterval, "peer-interval", 100, "Delay between frames sent by each simulated bus peer, in milliseconds.")
	flag.BoolVar(&optTrace, "trace", false, "Dump the echo trace on exit.")
}

func main() {
	if err := config.Load(helpers.CheckForConfigFlag(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Could not load configuration: %s\n", err)
		os.Exit(2)
	}

	setupFlags()
	flag.Parse()

	clog.SetLogLevel(clog.LogLevel(optLogLevel))
	if optLogFile != "" {
		if err := clog.SetLogFile(optLogFile); err != nil {
			clog.Fatal("%s", err)
		}
	}
	defer clog.Terminate()

	var sims [flexcan.NUM_CONTROLLERS]*flexcan.SimulatedController
	var blocks [flexcan.NUM_CONTROLLERS]flexcan.RegisterBlock
	for i := range sims {
		sims[i] = flexcan.NewSimulatedController()
		sims[i].Latency = 4
		blocks[i] = sims[i]
	}

	bridge, err := controllers.NewBridge(blocks, &flexcan.HostPlatform{}, config.Settings.DriverOptions())
	if err != nil {
		clog.Fatal("%s", err)
	}

	var peers []*busPeer
	for _, ch := range config.Settings.Channels {
		if !ch.Enabled {
			clog.Info("CAN%d: disabled in configuration", ch.Index)
			continue
		}
		if err := bridge.Initialize(ch.Index, ch.BitRate); err != nil {
			if errors.Is(err, flexcan.ErrHardwareTimeout) {
				clog.Error("CAN%d: controller does not respond, channel left down", ch.Index)
			}
			continue
		}
		peers = append(peers, &busPeer{index: ch.Index, sim: sims[ch.Index]})
	}
	if len(peers) == 0 {
		clog.Fatal("No CAN channel could be initialized.")
	}
	bridge.SetMonitorInterval(time.Duration(config.Settings.MonitorInterval) * time.Second)

	stop := make(chan struct{})
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	go func() {
		if optDuration > 0 {
			select {
			case <-signals:
			case <-time.After(time.Duration(optDuration) * time.Second):
			}
		} else {
			<-signals
		}
		close(stop)
	}()

	peersDone := make(chan struct{})
	go runPeers(peers, time.Duration(optPeerInterval)*time.Millisecond, stop, peersDone)

	bridge.Serve(stop, time.Duration(optPollInterval)*time.Millisecond)
	<-peersDone

	for _, p := range peers {
		clog.Info("CAN%d: peer saw %d echoes, %d outstanding, %d lost", p.index, p.echoed, len(p.expected), p.lost)
	}

	if optTrace {
		bridge.Trace.Each(func(lineNo int, line string) {
			fmt.Printf("%4d %s\n", lineNo, line)
		})
	}
}
