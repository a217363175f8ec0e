package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ble_mod "github.com/go-ble/ble"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobel/go-ibeacon-exporter/beacon"
	"github.com/mobel/go-ibeacon-exporter/ble"
	"github.com/mobel/go-ibeacon-exporter/ble/bletest"
	"github.com/mobel/go-ibeacon-exporter/collector/model"
)

// Manufacturer data of the AirLocate reference beacon.
var airLocate = []byte{
	0x4c, 0x00, 0x02, 0x15,
	0xe2, 0xc5, 0x6d, 0xb5, 0xdf, 0xfb, 0x48, 0xd2, 0xb0, 0x60, 0xd0, 0xf5, 0xa7, 0x10, 0x96, 0xe0,
	0x00, 0x00,
	0x00, 0x00,
	0xc5,
}

func beaconAdvertisement(addr string, rssi int) ble.Advertisement {
	return bletest.FakeAdvertisement{
		ManufacturerBytes: airLocate,
		Signal:            rssi,
		Address:           ble_mod.NewAddr(addr),
	}
}

// fakeScanner replays advertisements, failing the first failures scans.
type fakeScanner struct {
	advertisements []ble.Advertisement
	failures       int
	// block until the context is done after replaying.
	block bool

	mu    sync.Mutex
	scans int
}

var errScan = errors.New("hci: device busy")

func (s *fakeScanner) ScanAll(ctx context.Context, onAdvertisement func(ble.Advertisement)) error {
	s.mu.Lock()
	s.scans += 1
	attempt := s.scans
	s.mu.Unlock()

	if attempt <= s.failures {
		return errScan
	}

	for _, a := range s.advertisements {
		onAdvertisement(a)
	}

	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}

	return nil
}

func (s *fakeScanner) Scans() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scans
}

func TestHandle_StoresDecodedRecords(t *testing.T) {
	reg := beacon.NewRegistry()
	c := New(reg, Options{})

	rec, err := c.Handle(beacon.Frame{
		Data:    append([]byte{0x02, 0x01, 0x1a, 0x1a, 0xff}, airLocate...),
		RSSI:    -59,
		Address: "aa:bb:cc:dd:ee:ff",
	})
	require.NoError(t, err)

	got, ok := reg.Get("aa:bb:cc:dd:ee:ff")
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestHandle_SkipsUnrecognizedFrames(t *testing.T) {
	reg := beacon.NewRegistry()

	var results []model.Result

	c := New(reg, Options{
		OnResult: func(r model.Result) {
			results = append(results, r)
		},
	})

	_, err := c.Handle(beacon.Frame{Data: []byte{0x02, 0x01, 0x06}, Address: "aa:bb:cc:dd:ee:ff"})

	assert.True(t, beacon.IsUnrecognized(err))
	assert.Equal(t, 0, reg.Count())

	require.Len(t, results, 1)
	assert.False(t, results[0].Decoded())
	assert.Contains(t, results[0].String(), "result:error")
}

func TestRun_RegistersEveryBeacon(t *testing.T) {
	reg := beacon.NewRegistry()
	c := New(reg, Options{})

	scanner := &fakeScanner{
		advertisements: []ble.Advertisement{
			beaconAdvertisement("00:00:00:00:00:01", -60),
			beaconAdvertisement("00:00:00:00:00:02", -61),
			bletest.FakeAdvertisement{Address: ble_mod.NewAddr("00:00:00:00:00:03")},
			beaconAdvertisement("00:00:00:00:00:01", -62),
		},
	}

	require.NoError(t, c.Run(context.Background(), scanner))

	assert.Equal(t, 2, reg.Count())

	got, ok := reg.Get("00:00:00:00:00:01")
	require.True(t, ok)
	assert.Equal(t, -62, got.RSSI)
}

func TestRun_StopsCleanlyOnCancel(t *testing.T) {
	reg := beacon.NewRegistry()

	decoded := make(chan struct{}, 1)

	c := New(reg, Options{
		OnResult: func(r model.Result) {
			if r.Decoded() {
				select {
				case decoded <- struct{}{}:
				default:
				}
			}
		},
	})

	scanner := &fakeScanner{
		advertisements: []ble.Advertisement{beaconAdvertisement("00:00:00:00:00:01", -60)},
		block:          true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- c.Run(ctx, scanner)
	}()

	select {
	case <-decoded:
	case <-time.After(5 * time.Second):
		t.Fatal("advertisement was never decoded")
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.Equal(t, 1, reg.Count())
}

func TestRun_RetriesFailedScans(t *testing.T) {
	reg := beacon.NewRegistry()
	c := New(reg, Options{MaxRetries: 2, BackoffFactor: time.Millisecond})

	scanner := &fakeScanner{
		advertisements: []ble.Advertisement{beaconAdvertisement("00:00:00:00:00:01", -60)},
		failures:       2,
	}

	require.NoError(t, c.Run(context.Background(), scanner))

	assert.Equal(t, 3, scanner.Scans())
	assert.Equal(t, 1, reg.Count())
}

func TestRun_GivesUpAfterMaxRetries(t *testing.T) {
	c := New(beacon.NewRegistry(), Options{MaxRetries: 1, BackoffFactor: time.Millisecond})

	scanner := &fakeScanner{failures: 10}

	err := c.Run(context.Background(), scanner)

	assert.ErrorIs(t, err, errScan)
	assert.Equal(t, 2, scanner.Scans())
}

func TestNew_AppliesDefaults(t *testing.T) {
	c := New(beacon.NewRegistry(), Options{})

	assert.Equal(t, DefaultQueueSize, c.opts.QueueSize)
	assert.Equal(t, DefaultMaxRetries, c.opts.MaxRetries)
	assert.Equal(t, DefaultBackoffFactor, c.opts.BackoffFactor)
}

func TestNew_KeepsExplicitOptions(t *testing.T) {
	c := New(beacon.NewRegistry(), Options{QueueSize: 8, MaxRetries: 5, BackoffFactor: time.Second})

	assert.Equal(t, 8, c.opts.QueueSize)
	assert.Equal(t, 5, c.opts.MaxRetries)
	assert.Equal(t, time.Second, c.opts.BackoffFactor)
}

func TestRun_NegativeMaxRetriesDisablesRestarts(t *testing.T) {
	c := New(beacon.NewRegistry(), Options{MaxRetries: -1})

	scanner := &fakeScanner{failures: 10}

	err := c.Run(context.Background(), scanner)

	assert.ErrorIs(t, err, errScan)
	assert.Equal(t, 1, scanner.Scans())
}

func TestEnqueue_DropsWhenQueueIsFull(t *testing.T) {
	frames := make(chan beacon.Frame, 1)
	before := testutil.ToFloat64(droppedCounter)

	// must return immediately both times.
	enqueue(context.Background(), beaconAdvertisement("00:00:00:00:00:01", -60), frames)
	enqueue(context.Background(), beaconAdvertisement("00:00:00:00:00:02", -60), frames)

	assert.Equal(t, before+1, testutil.ToFloat64(droppedCounter))

	f := <-frames
	assert.Equal(t, "00:00:00:00:00:01", f.Address)
}

func TestEnqueue_CopiesFrameData(t *testing.T) {
	frames := make(chan beacon.Frame, 1)
	data := append([]byte{0x02, 0x01, 0x1a, 0x1a, 0xff}, airLocate...)

	enqueue(context.Background(), bletest.RawAdvertisement{Raw: data}, frames)

	// the BLE stack reuses its buffer.
	data[7] = 0x00

	f := <-frames
	assert.Equal(t, byte(0x02), f.Data[7])
}

func TestEnqueue_IgnoresAdvertisementsAfterCancel(t *testing.T) {
	frames := make(chan beacon.Frame, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enqueue(ctx, beaconAdvertisement("00:00:00:00:00:01", -60), frames)

	assert.Len(t, frames, 0)
}
