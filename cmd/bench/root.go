package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	cmdUtil "github.com/ValentinKolb/dHangman/cmd/util"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cmd")

var (
	benchCmdConfig = benchConfig{}
	BenchCmd       = &cobra.Command{
		Use:     "bench",
		Short:   "Load testing tool for hangman coordinators",
		Long:    `Opens many participant connections to a running coordinator and measures the latency of SCORE round trips.`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	cmdUtil.SetupTransportFlags(BenchCmd, "localhost:9091")
	cmdUtil.SetupLogFlags(BenchCmd, "warn")

	key := "connections"
	BenchCmd.Flags().Int(key, 10, cmdUtil.WrapString("Number of participant connections opened in parallel"))
	key = "round-trips"
	BenchCmd.Flags().Int(key, 1000, cmdUtil.WrapString("Number of SCORE round trips per connection"))
	key = "timeout"
	BenchCmd.Flags().Duration(key, 10*time.Second, cmdUtil.WrapString("How long to wait for the connection and for every answer"))
	key = "csv"
	BenchCmd.Flags().String(key, "", cmdUtil.WrapString("Optional path to save the benchmark results as CSV"))
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := cmdUtil.ValidateLogging(); err != nil {
		return err
	}

	benchCmdConfig.Connections = viper.GetInt("connections")
	benchCmdConfig.RoundTrips = viper.GetInt("round-trips")
	benchCmdConfig.Timeout = viper.GetDuration("timeout")
	benchCmdConfig.Client = *cmdUtil.GetClientConfig()

	if benchCmdConfig.Connections <= 0 || benchCmdConfig.RoundTrips <= 0 {
		return fmt.Errorf("connections and round-trips must be positive")
	}
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	if err := common.InitLoggersTo(os.Stderr, benchCmdConfig.Client.LogLevel, benchCmdConfig.Client.LogFormat); err != nil {
		return err
	}

	fmt.Println("Load testing tool for hangman coordinators")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(benchCmdConfig.Client.String())
	fmt.Printf("Connections: %d\n", benchCmdConfig.Connections)
	fmt.Printf("Round Trips: %d\n", benchCmdConfig.RoundTrips)
	fmt.Println()

	fmt.Println("starting round trips...")

	result, err := runBench(benchCmdConfig, cmdUtil.GetClientTransport, cmdUtil.GetSerializer(benchCmdConfig.Client.Transport))
	if err != nil {
		return err
	}
	fmt.Println(result.String())

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultToCSV(csvPath, result, benchCmdConfig); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// writeResultToCSV writes the benchmark result and its configuration to a CSV file
func writeResultToCSV(csvPath string, result *benchResult, config benchConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"Count", "Errors", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs", "ElapsedNs", "OpsPerSec",
		"Transport", "Endpoint", "Connections", "RoundTrips",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	row := []string{
		strconv.FormatInt(result.Count, 10),
		strconv.FormatInt(result.Errors, 10),
		strconv.FormatInt(result.Mean.Nanoseconds(), 10),
		strconv.FormatInt(result.P50.Nanoseconds(), 10),
		strconv.FormatInt(result.P95.Nanoseconds(), 10),
		strconv.FormatInt(result.P99.Nanoseconds(), 10),
		strconv.FormatInt(result.Max.Nanoseconds(), 10),
		strconv.FormatInt(result.Elapsed.Nanoseconds(), 10),
		fmt.Sprintf("%.0f", result.OpsPerSec),
		config.Client.Transport.Type,
		config.Client.Transport.Endpoint,
		strconv.Itoa(config.Connections),
		strconv.Itoa(config.RoundTrips),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %v", err)
	}

	writer.Flush()
	return writer.Error()
}
