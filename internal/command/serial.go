package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// SerialReader decodes override bytes from a serial device.
type SerialReader struct {
	r     io.Reader
	queue *Queue
}

func NewSerialReader(r io.Reader, q *Queue) *SerialReader {
	return &SerialReader{r: r, queue: q}
}

// DefaultBaud is the override channel line speed.
const DefaultBaud = 9600

// openPort is replaced in tests.
var openPort = serial.Open

// SerialMode returns the line setup for the override channel: raw 8N1 at baud.
func SerialMode(baud int) *serial.Mode {
	if baud <= 0 {
		baud = DefaultBaud
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// OpenSerial opens the device in raw mode for reading commands and writing
// status records. Single bytes are delivered without waiting for a line end.
func OpenSerial(path string, baud int) (serial.Port, error) {
	port, err := openPort(path, SerialMode(baud))
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return port, nil
}

// Run reads until ctx is cancelled or the reader fails. Unknown bytes,
// including line endings, are ignored.
func (s *SerialReader) Run(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := s.r.Read(buf)
		for _, b := range buf[:n] {
			if c, ok := Decode(b); ok {
				log.Info().Str("command", c.String()).Msg("Serial command received")
				s.queue.Push(c)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
