package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmdUtil "github.com/ValentinKolb/dHangman/cmd/util"
	"github.com/ValentinKolb/dHangman/lib/game"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/server"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cmd")

var (
	serveCmdConfig = &common.ServerConfig{}
	statsInterval  time.Duration
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the hangman coordinator",
		Long:    `Start the hangman coordinator with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is HANGMAN_<flag> (e.g. HANGMAN_MAX_QUEUE_BYTES=65536)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	cmdUtil.SetupTransportFlags(ServeCmd, common.DefaultEndpoint)
	cmdUtil.SetupLogFlags(ServeCmd, common.DefaultLogLevel)

	key := "workers"
	ServeCmd.PersistentFlags().Int(key, common.DefaultServerWorkers, cmdUtil.WrapString("Number of workers processing the commands of the participants. The commands of one participant are always processed in order"))

	key = "words-file"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional file with one word per line (blank lines and lines starting with # are skipped). The built-in list is used if empty"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the prometheus endpoint (e.g. 127.0.0.1:9092). Disabled if empty"))

	key = "stats-interval"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("How often the worker statistics are logged (e.g. 30s). Disabled if 0"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := cmdUtil.ValidateLogging(); err != nil {
		return err
	}

	serveCmdConfig.Transport = cmdUtil.GetTransportConfig()
	serveCmdConfig.Workers = viper.GetInt("workers")
	serveCmdConfig.WordsFile = viper.GetString("words-file")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.LogFormat = viper.GetString("log-format")
	statsInterval = viper.GetDuration("stats-interval")

	if serveCmdConfig.Workers <= 0 {
		return fmt.Errorf("invalid number of workers: %d", serveCmdConfig.Workers)
	}

	return nil
}

// run starts the coordinator and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	if err := common.InitLoggers(serveCmdConfig.LogLevel, serveCmdConfig.LogFormat); err != nil {
		return err
	}

	words, err := loadWords(serveCmdConfig.WordsFile)
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		cmdUtil.GetSerializer(serveCmdConfig.Transport),
		game.NewSession(words),
	)
	if err := serv.Start(); err != nil {
		return err
	}

	var metricsServer *http.Server
	if serveCmdConfig.MetricsEndpoint != "" {
		metricsServer = startMetricsServer(serveCmdConfig.MetricsEndpoint, serv)
	}

	stopStats := make(chan struct{})
	if statsInterval > 0 {
		go logStats(serv, statsInterval, stopStats)
	}

	// stop on SIGINT / SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	waitErr := make(chan error, 1)
	go func() { waitErr <- serv.Wait() }()

	select {
	case s := <-sig:
		Logger.Infof("received %s, shutting down", s)
	case err := <-waitErr:
		if err != nil {
			Logger.Errorf("coordinator stopped unexpectedly: %v", err)
		}
	}

	close(stopStats)
	stopErr := serv.Stop()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			Logger.Warningf("failed to shut down the metrics endpoint: %v", err)
		}
	}

	return stopErr
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func loadWords(path string) (game.IWordSource, error) {
	if path == "" {
		return game.NewWordList(game.DefaultWords...), nil
	}
	words, err := game.LoadWordFile(path)
	if err != nil {
		return nil, err
	}
	if words.Len() == 0 {
		return nil, fmt.Errorf("word file %s contains no words", path)
	}
	return words, nil
}

// startMetricsServer exposes the transport counters and the worker statistics in prometheus format
func startMetricsServer(endpoint string, serv server.IRPCServer) *http.Server {
	poolMetrics := metrics.NewSet()
	poolMetrics.NewGauge("hangman_pool_pending", func() float64 {
		return float64(serv.PoolStats().Pending)
	})
	poolMetrics.NewGauge("hangman_pool_completed_total", func() float64 {
		return float64(serv.PoolStats().Completed)
	})
	poolMetrics.NewGauge("hangman_pool_failed_total", func() float64 {
		return float64(serv.PoolStats().Failed)
	})
	poolMetrics.NewGauge("hangman_pool_latency_p99_seconds", func() float64 {
		return serv.PoolStats().P99Latency.Seconds()
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
		poolMetrics.WritePrometheus(w)
	})

	srv := &http.Server{
		Addr:              endpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		Logger.Infof("metrics available on http://%s/metrics", endpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()

	return srv
}

func logStats(serv server.IRPCServer, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			Logger.Infof("workers: %s", serv.PoolStats())
		case <-stop:
			return
		}
	}
}
