package scanner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"github.com/muurk/pantti/internal/logging"
)

// StdinDeviceID is the device id of the standard input reader.
const StdinDeviceID = "stdin"

// DefaultBaudRate is the line speed used for serial readers.
const DefaultBaudRate = 9600

// SerialOpener opens serial barcode readers and, when enabled, standard
// input.
type SerialOpener struct {
	// BaudRate of opened ports. Zero means DefaultBaudRate.
	BaudRate int
	// Filter keeps only ports whose name or product contains it
	// (case-insensitive). Empty keeps all.
	Filter string
	// Stdin offers standard input as a capture device.
	Stdin bool

	listPorts func() ([]*enumerator.PortDetails, error)
	stdin     *linePump
}

// NewSerialOpener creates an opener reading from the system serial ports.
func NewSerialOpener(baudRate int, filter string, stdin bool) *SerialOpener {
	return &SerialOpener{
		BaudRate:  baudRate,
		Filter:    filter,
		Stdin:     stdin,
		listPorts: enumerator.GetDetailedPortsList,
		stdin:     newLinePump(os.Stdin),
	}
}

// Ports lists the available capture devices, standard input first.
func (o *SerialOpener) Ports(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var devices []Device
	if o.Stdin {
		devices = append(devices, Device{ID: StdinDeviceID, Label: "Standard input"})
	}

	details, err := o.listPorts()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	sort.Slice(details, func(i, j int) bool { return details[i].Name < details[j].Name })

	filter := strings.ToLower(o.Filter)
	for _, d := range details {
		if filter != "" &&
			!strings.Contains(strings.ToLower(d.Name), filter) &&
			!strings.Contains(strings.ToLower(d.Product), filter) {
			continue
		}
		devices = append(devices, Device{ID: d.Name, Label: portLabel(d)})
	}

	logging.Debug("Enumerated capture devices", zap.Int("count", len(devices)))
	return devices, nil
}

// Open opens a serial port, or standard input for StdinDeviceID.
func (o *SerialOpener) Open(deviceID string) (io.ReadCloser, error) {
	if deviceID == StdinDeviceID {
		if !o.Stdin || o.stdin == nil {
			return nil, fmt.Errorf("standard input capture is disabled")
		}
		return o.stdin.open(), nil
	}

	baud := o.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(deviceID, mode)
	if err != nil {
		return nil, err
	}

	logging.Info("Opened serial capture device",
		zap.String("port", deviceID),
		zap.Int("baud_rate", baud),
	)
	return port, nil
}

func portLabel(d *enumerator.PortDetails) string {
	switch {
	case d.Product != "":
		return fmt.Sprintf("%s (%s)", d.Product, d.Name)
	case d.IsUSB:
		return fmt.Sprintf("USB %s:%s (%s)", d.VID, d.PID, d.Name)
	default:
		return d.Name
	}
}

// linePump reads lines from a reader that cannot be closed (standard
// input) on a single goroutine and hands them to whichever port is open.
type linePump struct {
	src   io.Reader
	start sync.Once
	lines chan string
}

func newLinePump(src io.Reader) *linePump {
	return &linePump{src: src, lines: make(chan string)}
}

func (p *linePump) open() io.ReadCloser {
	p.start.Do(func() { go p.run() })
	return &pumpPort{lines: p.lines, closed: make(chan struct{})}
}

func (p *linePump) run() {
	sc := bufio.NewScanner(p.src)
	sc.Buffer(make([]byte, 4096), maxFrameSize)
	for sc.Scan() {
		p.lines <- sc.Text() + "\n"
	}
	close(p.lines)
}

// pumpPort is one open handle on a linePump. Closing it unblocks Read
// without touching the underlying reader.
type pumpPort struct {
	lines     <-chan string
	closed    chan struct{}
	closeOnce sync.Once
	pending   string
}

func (p *pumpPort) Read(b []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, os.ErrClosed
	default:
	}

	if p.pending == "" {
		select {
		case <-p.closed:
			return 0, os.ErrClosed
		case line, ok := <-p.lines:
			if !ok {
				return 0, io.EOF
			}
			p.pending = line
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *pumpPort) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

var _ PortOpener = (*SerialOpener)(nil)
