package common

import (
	"fmt"
	"strconv"
	"strings"
)

// Defaults shared by the CLI and the tests
const (
	DefaultTransport      = "tcp"
	DefaultEndpoint       = "0.0.0.0:9091"
	DefaultServerWorkers  = 4
	DefaultClientWorkers  = 1
	DefaultMaxFrameBytes  = 64 * 1024
	DefaultMaxQueueBytes  = 1024 * 1024
	DefaultReadBufferSize = 4 * 1024
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// --------------------------------------------------------------------------
// Transport configuration structs
// --------------------------------------------------------------------------

// SocketConf holds the kernel socket buffer sizes (0 keeps the OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	// TCPLingerSec <= 0 keeps the OS default
	TCPLingerSec int
}

// TransportConf configures the connection layer of a coordinator or participant
type TransportConf struct {
	// Type is the address family, "tcp" or "unix"
	Type string
	// Endpoint is host:port for tcp or a socket path for unix
	Endpoint string
	// MaxFrameBytes is the largest accepted frame payload
	MaxFrameBytes int
	// MaxQueueBytes is the largest amount of unsent bytes per connection;
	// a connection exceeding it is disconnected
	MaxQueueBytes int
	// ReadChunkSize is the number of bytes read per readable event
	ReadChunkSize int
	SocketConf
	TCPConf
}

// WithDefaults returns a copy with unset limits replaced by their defaults
func (c TransportConf) WithDefaults() TransportConf {
	if c.Type == "" {
		c.Type = DefaultTransport
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if c.MaxQueueBytes <= 0 {
		c.MaxQueueBytes = DefaultMaxQueueBytes
	}
	if c.ReadChunkSize <= 0 {
		c.ReadChunkSize = DefaultReadBufferSize
	}
	return c
}

// --------------------------------------------------------------------------
// Coordinator configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of a coordinator
type ServerConfig struct {
	Transport TransportConf

	// Workers is the size of the command worker pool
	Workers int

	// WordsFile is an optional file with one word per line
	WordsFile string

	// MetricsEndpoint enables the prometheus endpoint if not empty (e.g. 127.0.0.1:9092)
	MetricsEndpoint string

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Coordinator")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Workers", strconv.Itoa(c.Workers))
	addField("Words File", orDefault(c.WordsFile, "(built-in list)"))
	addField("Metrics Endpoint", orDefault(c.MetricsEndpoint, "(disabled)"))

	writeTransport(addSection, addField, c.Transport)

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Log Format", c.LogFormat)

	return sb.String()
}

// --------------------------------------------------------------------------
// Participant configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters of a participant
type ClientConfig struct {
	Transport TransportConf

	// Workers is the size of the worker pool delivering messages to the listener
	Workers int

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Participant")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Workers", strconv.Itoa(c.Workers))

	writeTransport(addSection, addField, c.Transport)

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func writeTransport(addSection func(string), addField func(string, string), t TransportConf) {
	addSection("Transport")
	addField("Type", t.Type)
	addField("Max Frame Size", fmt.Sprintf("%d bytes", t.MaxFrameBytes))
	addField("Max Queued Bytes", fmt.Sprintf("%d bytes", t.MaxQueueBytes))
	addField("Read Chunk Size", fmt.Sprintf("%d bytes", t.ReadChunkSize))
	addField("Write Buffer", sizeOrDefault(t.WriteBufferSize))
	addField("Read Buffer", sizeOrDefault(t.ReadBufferSize))
	addField("TCP No Delay", strconv.FormatBool(t.TCPNoDelay))
	if t.TCPKeepAliveSec > 0 {
		addField("TCP Keep Alive", fmt.Sprintf("%d sec", t.TCPKeepAliveSec))
	}
	if t.TCPLingerSec > 0 {
		addField("TCP Linger", fmt.Sprintf("%d sec", t.TCPLingerSec))
	}
}

func sizeOrDefault(size int) string {
	if size <= 0 {
		return "(os default)"
	}
	return fmt.Sprintf("%d bytes", size)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
