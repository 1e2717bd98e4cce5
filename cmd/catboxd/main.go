// Command catboxd runs the IRC daemon core implemented in
// internal/catbox.
package main

import (
	"fmt"
	"net/http"
	"os"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/horgh/catboxd/internal/catbox"
)

var (
	configFile  string
	serverName  string
	metricsAddr string
	listenFD    int
	sid         string
)

func main() {
	root := &cobra.Command{
		Use:          "catboxd",
		Short:        "An IRC daemon.",
		SilenceUsage: true,
		RunE:         run,
	}

	root.Flags().StringVar(&configFile, "conf", "", "Configuration file.")
	root.Flags().StringVar(&serverName, "server-name", "", "Server name. Overrides server-name from config.")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on (optional).")
	root.Flags().IntVar(&listenFD, "listen-fd", -1, "File descriptor with listening port to use (optional).")
	root.Flags().StringVar(&sid, "sid", "", "SID. Overrides ts6-sid from config.")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		return fmt.Errorf("you must provide a configuration file (--conf)")
	}

	log := logrus.New()
	log.SetFormatter(&formatter.Formatter{
		HideKeys:    true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	entry := log.WithField("component", "catboxd")

	opts, err := catbox.LoadOptions(configFile)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}
	if serverName != "" {
		opts.ServerName = serverName
	}
	if sid != "" {
		opts.SID = sid
	}

	var metrics *catbox.Metrics
	if metricsAddr != "" {
		metrics = catbox.NewMetrics()
		go func() {
			entry.WithField("addr", metricsAddr).Info("serving metrics")
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			_ = http.ListenAndServe(metricsAddr, mux)
		}()
	}

	srv := catbox.NewServer(opts, entry, metrics)
	reactor := catbox.NewReactor(srv)
	reactor.ListenFD = listenFD

	if listenFD >= 0 {
		entry.WithField("listen_fd", listenFD).Info("starting catboxd")
	} else {
		entry.WithField("listen", opts.ListenPorts).Info("starting catboxd")
	}
	return reactor.Run()
}
