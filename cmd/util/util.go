package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/ValentinKolb/dHangman/rpc/transport/tcp"
	"github.com/ValentinKolb/dHangman/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. HANGMAN_ENDPOINT)
	EnvPrefix = "hangman"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupTransportFlags adds the connection flags shared by the coordinator and the participants
func SetupTransportFlags(cmd *cobra.Command, defaultEndpoint string) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, defaultEndpoint, WrapString("The address of the coordinator (host:port for tcp, a socket path for unix)"))

	key = "max-frame-bytes"
	cmd.PersistentFlags().Int(key, common.DefaultMaxFrameBytes, WrapString("The largest accepted frame payload in bytes"))

	key = "max-queue-bytes"
	cmd.PersistentFlags().Int(key, common.DefaultMaxQueueBytes, WrapString("The largest amount of unsent bytes per connection. A connection exceeding it is disconnected"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the kernel write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the kernel read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, 0 disables it, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time (in seconds, 0 keeps the OS default, only for tcp)"))
}

// SetupLogFlags adds the logging flags to a command
func SetupLogFlags(cmd *cobra.Command, defaultLevel string) {
	key := "log-level"
	cmd.PersistentFlags().String(key, defaultLevel, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "log-format"
	cmd.PersistentFlags().String(key, common.DefaultLogFormat, WrapString("LogFormat is the format of the log output (console, json)"))
}

// InitConfig loads the env files and initializes viper
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// ValidateLogging checks the configured log level and format
func ValidateLogging() error {
	if _, err := common.ParseLogLevel(viper.GetString("log-level")); err != nil {
		return err
	}
	return common.ValidateLogFormat(viper.GetString("log-format"))
}

// GetTransportConfig reads the connection settings from viper
func GetTransportConfig() common.TransportConf {
	return common.TransportConf{
		Type:          viper.GetString("transport"),
		Endpoint:      viper.GetString("endpoint"),
		MaxFrameBytes: viper.GetInt("max-frame-bytes"),
		MaxQueueBytes: viper.GetInt("max-queue-bytes"),
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
		},
	}.WithDefaults()
}

// GetClientConfig reads the participant configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Transport: GetTransportConfig(),
		Workers:   common.DefaultClientWorkers,
		LogLevel:  viper.GetString("log-level"),
		LogFormat: viper.GetString("log-format"),
	}
}

// GetSerializer creates the frame codec for the configured frame limit
func GetSerializer(config common.TransportConf) serializer.IRPCSerializer {
	return serializer.NewFrameSerializer(config.WithDefaults().MaxFrameBytes)
}

// GetServerTransport creates the coordinator transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetClientTransport creates the participant transport based on configuration
func GetClientTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}
