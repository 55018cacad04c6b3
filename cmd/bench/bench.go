package bench

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/dHangman/rpc/client"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	gometrics "github.com/rcrowley/go-metrics"
)

var errTimeout = errors.New("bench: no answer in time")

// benchConfig describes one load run
type benchConfig struct {
	Connections int
	RoundTrips  int
	Timeout     time.Duration
	Client      common.ClientConfig
}

// benchResult summarizes the round trips of all connections
type benchResult struct {
	Count     int64
	Errors    int64
	Mean      time.Duration
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
	Max       time.Duration
	Elapsed   time.Duration
	OpsPerSec float64
}

// benchListener forwards the SCORE replies of one connection
type benchListener struct {
	connected chan struct{}
	scores    chan int
	once      sync.Once
}

func newBenchListener() *benchListener {
	return &benchListener{
		connected: make(chan struct{}),
		scores:    make(chan int, 1),
	}
}

func (l *benchListener) OnConnected() {
	l.once.Do(func() { close(l.connected) })
}

func (l *benchListener) OnMessage(msg common.Message) {
	// broadcasts of the other connections are ignored
	if msg.Cmd != common.CmdScore {
		return
	}
	// one request is in flight at a time, a late answer after a timeout is dropped
	select {
	case l.scores <- msg.Score:
	default:
	}
}

func (l *benchListener) OnDisconnected(err error) {
	if err != nil {
		Logger.Debugf("bench connection closed: %v", err)
	}
}

// runBench opens the connections and runs the SCORE round trips in parallel
func runBench(
	config benchConfig,
	newTransport func() (transport.IRPCClientTransport, error),
	codec serializer.IRPCSerializer,
) (*benchResult, error) {
	timer := gometrics.NewTimer()
	failed := gometrics.NewCounter()
	defer timer.Stop()

	type participant struct {
		client   client.IRPCClient
		listener *benchListener
	}

	// open every connection before the clock starts
	participants := make([]participant, 0, config.Connections)
	defer func() {
		for _, p := range participants {
			_ = p.client.Disconnect()
			p.client.Shutdown()
		}
	}()

	for i := 0; i < config.Connections; i++ {
		t, err := newTransport()
		if err != nil {
			return nil, err
		}
		l := newBenchListener()
		c := client.NewRPCClient(config.Client, t, codec, l)
		participants = append(participants, participant{client: c, listener: l})

		if err := c.Connect(); err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}
		if err := c.Username(fmt.Sprintf("BENCH-%d", i)); err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}
		select {
		case <-l.connected:
		case <-time.After(config.Timeout):
			return nil, fmt.Errorf("connection %d: %w", i, errTimeout)
		}
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, p := range participants {
		wg.Add(1)
		go func(p participant) {
			defer wg.Done()
			for n := 0; n < config.RoundTrips; n++ {
				sent := time.Now()
				if err := p.client.Score(); err != nil {
					Logger.Warningf("failed to send SCORE: %v", err)
					failed.Inc(1)
					return
				}
				select {
				case <-p.listener.scores:
					timer.UpdateSince(sent)
				case <-time.After(config.Timeout):
					Logger.Warningf("SCORE round trip timed out")
					failed.Inc(1)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	elapsed := time.Since(start)

	snap := timer.Snapshot()
	ps := snap.Percentiles([]float64{0.5, 0.95, 0.99})
	result := &benchResult{
		Count:   snap.Count(),
		Errors:  failed.Count(),
		Mean:    time.Duration(snap.Mean()),
		P50:     time.Duration(ps[0]),
		P95:     time.Duration(ps[1]),
		P99:     time.Duration(ps[2]),
		Max:     time.Duration(snap.Max()),
		Elapsed: elapsed,
	}
	if elapsed > 0 {
		result.OpsPerSec = float64(result.Count) / elapsed.Seconds()
	}
	return result, nil
}

// String formats the result as aligned name/value lines
func (r *benchResult) String() string {
	return fmt.Sprintf("%-12s%d\n%-12s%d\n%-12s%s\n%-12s%s\n%-12s%s\n%-12s%s\n%-12s%s\n%-12s%.0f ops/sec",
		"count", r.Count,
		"errors", r.Errors,
		"mean", r.Mean,
		"p50", r.P50,
		"p95", r.P95,
		"p99", r.P99,
		"max", r.Max,
		"throughput", r.OpsPerSec,
	)
}
