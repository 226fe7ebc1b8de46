// Command srproto drives the Selective Repeat protocol engine across a
// simulated unreliable channel, per one of three enumerated scenarios,
// and reports the resulting stats bundle. Scenario dispatch, message
// loading, stats formatting, the log sink, and OS introspection all
// live here rather than in internal/protocol.
package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/srlab/srproto/internal/channel"
	"github.com/srlab/srproto/internal/frame"
	"github.com/srlab/srproto/internal/metrics"
	"github.com/srlab/srproto/internal/protocol"
	"github.com/srlab/srproto/internal/scenario"
	"github.com/srlab/srproto/internal/sysinfo"
)

// fallbackMessage is used when --message-file names a path that does
// not exist, matching the Python original's "message par défaut" guard
// against a missing message.txt.
var fallbackMessage = bytes.Repeat([]byte("Hello, SR over noisy canal! "), 300)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, logBackend *os.File) int {
	flags := pflag.NewFlagSet("srproto", pflag.ContinueOnError)
	scenarioNum := flags.IntP("scenario", "s", 1, "Scenario to run: 1 (perfect), 2 (bruité), 3 (instable).")
	messagePath := flags.StringP("message-file", "m", "message.txt", "Path to the message to transmit.")
	scenariosFile := flags.String("scenarios-file", "scenarios.toml", "Optional TOML file defining/overriding scenarios.")
	timeoutOverrideMS := flags.Int("timeout-ms", 0, "Override the scenario's computed timeout, in milliseconds.")
	metricsAddr := flags.String("metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. :9090) while the run is in flight.")
	logLevel := flags.String("log-level", "info", "Log level: debug, info, warn, error.")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: srproto [flags]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 1
	}

	logger := log.NewWithOptions(logBackend, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	if lvl, err := log.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}
	sysLog := logger.WithPrefix("SYS")

	overrides, err := scenario.LoadOverrides(*scenariosFile)
	if err != nil {
		sysLog.Error(err)
		return 1
	}

	scn, err := scenario.Lookup(*scenarioNum, overrides)
	if err != nil {
		flags.Usage()
		return 1
	}

	timeoutMS := scn.TimeoutMS
	if *timeoutOverrideMS > 0 {
		timeoutMS = *timeoutOverrideMS
	}
	timeout := time.Duration(timeoutMS) * time.Millisecond

	data, err := loadMessage(*messagePath)
	if err != nil {
		sysLog.Error(err)
		return 1
	}

	info := sysinfo.Collect()
	sysLog.Infof("%s | Scénario %d: %s", info, scn.Num, scn.Name)
	sysLog.Infof("Message: %d octets | timeout=%d ms | W=%d | MOD=%d", len(data), timeoutMS, frame.Window, frame.Mod)

	ch, err := channel.New(scn.Channel, logger.WithPrefix("CH"))
	if err != nil {
		sysLog.Error(err)
		return 1
	}
	defer func() { ch.Halt(); ch.Wait() }()

	var sender *protocol.Sender
	var receiver *protocol.Receiver
	receiver = protocol.NewReceiver(logger.WithPrefix("RX"), protocol.Handle{
		Channel: ch,
		Deliver: func(f *frame.Frame) { sender.OnAck(f) },
	})
	sender = protocol.NewSender(logger.WithPrefix("TX"), protocol.Handle{
		Channel: ch,
		Deliver: func(f *frame.Frame) { receiver.OnData(f) },
	}, timeout, protocol.WithSysLogger(sysLog))

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(metrics.NewCollector(sender))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() { _ = srv.ListenAndServe() }()
		defer srv.Close()
	}

	snap := sender.Send(data)
	rebuilt := receiver.Message()
	ok := bytes.Equal(rebuilt, data)

	report(sysLog, snap, ok)
	return 0
}

func loadMessage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fallbackMessage, nil
		}
		return nil, fmt.Errorf("srproto: reading message file %s: %w", path, err)
	}
	return data, nil
}

func report(sysLog *log.Logger, snap protocol.Snapshot, integrityOK bool) {
	verdict := "OK"
	if !integrityOK {
		verdict = "ECHEC"
	}
	sysLog.Info("Transmission terminée.")
	sysLog.Infof("Frames envoyées : %d", snap.FramesSent)
	sysLog.Infof("Frames retransmises : %d", snap.FramesRetransmitted)
	sysLog.Infof("ACK reçus : %d", snap.AcksReceived)
	sysLog.Infof("Durée totale : %.3f s", snap.DurationSeconds)
	sysLog.Infof("Intégrité message : %s", verdict)
}
