package capture

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"
	"github.com/google/gopacket/layers"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/strix/internal/fastpath"
	"firestige.xyz/strix/internal/metrics"
	"firestige.xyz/strix/internal/table"
)

const testPort = 3000

var (
	clientMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x0a}
	serverMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x14}
)

func buildGetFrame(t *testing.T, path string) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       clientMAC,
		DstMAC:       serverMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(192, 0, 2, 10).To4(),
		DstIP:    net.IPv4(192, 0, 2, 20).To4(),
	}
	tcp := &layers.TCP{
		SrcPort: 40000,
		DstPort: testPort,
		Seq:     1000,
		Ack:     2000,
		ACK:     true,
		PSH:     true,
		Window:  65535,
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	payload := gopacket.Payload([]byte("GET " + path + " HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp, payload))
	return buf.Bytes()
}

func newTestPipeline(t *testing.T) *fastpath.Pipeline {
	t.Helper()
	tbl := table.New()
	err := tbl.Put(
		table.Key{PathHash: fastpath.HashPath([]byte("/")), Encoding: table.EncodingIdentity},
		&table.Record{Body: []byte("hi"), ContentType: []byte("text/plain")},
	)
	require.NoError(t, err)
	return fastpath.New(testPort, tbl)
}

// fakeHandle serves a fixed set of frames, then reports ring timeouts until
// the engine shuts it down.
type fakeHandle struct {
	mu     sync.Mutex
	frames [][]byte
	err    error // returned after frames are exhausted, instead of ErrTimeout
	closed bool
}

func (h *fakeHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.frames) > 0 {
		f := h.frames[0]
		h.frames = h.frames[1:]
		return f, gopacket.CaptureInfo{CaptureLength: len(f), Length: len(f)}, nil
	}
	if h.err != nil {
		return nil, gopacket.CaptureInfo{}, h.err
	}
	time.Sleep(time.Millisecond)
	return nil, gopacket.CaptureInfo{}, afpacket.ErrTimeout
}

func (h *fakeHandle) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// fakeTransmitter records every frame written to it, or fails every write
// when failErr is set.
type fakeTransmitter struct {
	mu      sync.Mutex
	failErr error
	writes  [][]byte
}

func (tx *fakeTransmitter) WritePacketData(data []byte) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.failErr != nil {
		return tx.failErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	tx.writes = append(tx.writes, cp)
	return nil
}

func (tx *fakeTransmitter) Close() {}

func (tx *fakeTransmitter) snapshot() [][]byte {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return append([][]byte(nil), tx.writes...)
}

func swapOpeners(t *testing.T, h Handle, tx Transmitter) {
	t.Helper()
	prevHandle, prevInjector := openHandle, openInjector
	openHandle = func(Options) (Handle, error) { return h, nil }
	openInjector = func(string, int) (Transmitter, error) { return tx, nil }
	t.Cleanup(func() {
		openHandle, openInjector = prevHandle, prevInjector
	})
}

func TestEngineTransmitsRewrittenFrame(t *testing.T) {
	handle := &fakeHandle{frames: [][]byte{buildGetFrame(t, "/")}}
	tx := &fakeTransmitter{}
	swapOpeners(t, handle, tx)

	engine := NewEngine(Options{Device: "lo", SnapLen: 65536, Port: testPort}, 1, newTestPipeline(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(tx.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	out := tx.snapshot()[0]

	// Response goes back the way the request came in.
	assert.Equal(t, []byte(serverMAC), out[6:12], "response src MAC")
	assert.Equal(t, []byte(clientMAC), out[0:6], "response dst MAC")

	pkt := gopacket.NewPacket(out, layers.LayerTypeEthernet, gopacket.Default)
	tcpLayer := pkt.Layer(layers.LayerTypeTCP)
	require.NotNil(t, tcpLayer)
	tcp := tcpLayer.(*layers.TCP)
	assert.Equal(t, layers.TCPPort(testPort), tcp.SrcPort)
	assert.Equal(t, layers.TCPPort(40000), tcp.DstPort)
	assert.Contains(t, string(tcp.Payload), "HTTP/1.1 200 OK\r\n")
	assert.Contains(t, string(tcp.Payload), "\r\n\r\nhi")
}

func TestEngineIgnoresNonMatchingFrames(t *testing.T) {
	// Wrong port: the pipeline passes it through and nothing is written.
	eth := &layers.Ethernet{SrcMAC: clientMAC, DstMAC: serverMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolTCP,
		SrcIP: net.IPv4(192, 0, 2, 10).To4(), DstIP: net.IPv4(192, 0, 2, 20).To4()}
	tcp := &layers.TCP{SrcPort: 40000, DstPort: 8080, ACK: true, PSH: true, Window: 65535}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf,
		gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
		eth, ip, tcp, gopacket.Payload([]byte("GET / HTTP/1.1\r\n\r\n"))))

	handle := &fakeHandle{frames: [][]byte{buf.Bytes()}}
	tx := &fakeTransmitter{}
	swapOpeners(t, handle, tx)

	pipeline := newTestPipeline(t)
	engine := NewEngine(Options{Device: "lo", SnapLen: 65536, Port: testPort}, 1, pipeline)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	require.Eventually(t, func() bool {
		return pipeline.Stats().Frames.Load() == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Empty(t, tx.snapshot())
	assert.Equal(t, uint64(1), pipeline.Stats().PassedShort.Load())
}

func TestEngineCountsTransmitFailures(t *testing.T) {
	handle := &fakeHandle{frames: [][]byte{buildGetFrame(t, "/")}}
	tx := &fakeTransmitter{failErr: errors.New("interface down")}
	swapOpeners(t, handle, tx)

	pipeline := newTestPipeline(t)
	engine := NewEngine(Options{Device: "lo", SnapLen: 65536, Port: testPort}, 1, pipeline)

	errsBefore := testutil.ToFloat64(metrics.TransmitErrorsTotal)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	// The pipeline produced a response even though the wire rejected it.
	require.Eventually(t, func() bool {
		return pipeline.Stats().Transmitted.Load() == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done, "a failed write is counted, not fatal")

	assert.Empty(t, tx.snapshot())
	assert.Equal(t, errsBefore+1, testutil.ToFloat64(metrics.TransmitErrorsTotal))
}

func TestEngineStopsStartedWorkersOnOpenFailure(t *testing.T) {
	first := &fakeHandle{}
	openErr := errors.New("no such device")

	prevHandle, prevInjector := openHandle, openInjector
	calls := 0
	openHandle = func(Options) (Handle, error) {
		calls++
		if calls == 1 {
			return first, nil
		}
		return nil, openErr
	}
	openInjector = func(string, int) (Transmitter, error) { return &fakeTransmitter{}, nil }
	t.Cleanup(func() {
		openHandle, openInjector = prevHandle, prevInjector
	})

	engine := NewEngine(Options{Device: "lo", SnapLen: 65536, Port: testPort}, 2, newTestPipeline(t))

	err := engine.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, openErr)
	assert.True(t, first.isClosed(), "the worker started before the failure is drained")
}

func TestEngineReturnsReadError(t *testing.T) {
	readErr := errors.New("ring gone")
	handle := &fakeHandle{err: readErr}
	tx := &fakeTransmitter{}
	swapOpeners(t, handle, tx)

	engine := NewEngine(Options{Device: "lo", SnapLen: 65536, Port: testPort}, 1, newTestPipeline(t))

	err := engine.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
}

func TestNewEngineClampsWorkerCount(t *testing.T) {
	engine := NewEngine(Options{}, 0, newTestPipeline(t))
	assert.Equal(t, 1, engine.workers)
}
