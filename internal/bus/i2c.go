package bus

import (
	"fmt"

	"github.com/reef-pi/rpi/i2c"
	"github.com/rs/zerolog/log"
)

// I2CBus drives the host i2c adapter.
type I2CBus struct {
	bus i2c.Bus
}

func NewI2CBus() (*I2CBus, error) {
	b, err := i2c.New()
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return &I2CBus{bus: b}, nil
}

func (b *I2CBus) Write(addr byte, data []byte) error {
	if err := b.bus.WriteBytes(addr, data); err != nil {
		log.Debug().Err(err).Uint8("addr", addr).Msg("i2c write failed")
		return fmt.Errorf("%w: write to 0x%02x: %v", ErrTransaction, addr, err)
	}
	return nil
}

// WriteRead sets the register pointer with request, then reads len(response) bytes.
func (b *I2CBus) WriteRead(addr byte, request, response []byte) error {
	if err := b.bus.WriteBytes(addr, request); err != nil {
		log.Debug().Err(err).Uint8("addr", addr).Msg("i2c pointer write failed")
		return fmt.Errorf("%w: write to 0x%02x: %v", ErrTransaction, addr, err)
	}
	data, err := b.bus.ReadBytes(addr, len(response))
	if err != nil {
		log.Debug().Err(err).Uint8("addr", addr).Msg("i2c read failed")
		return fmt.Errorf("%w: read from 0x%02x: %v", ErrTransaction, addr, err)
	}
	if len(data) != len(response) {
		return fmt.Errorf("%w: short read from 0x%02x: got %d bytes, want %d", ErrTransaction, addr, len(data), len(response))
	}
	copy(response, data)
	return nil
}

func (b *I2CBus) Close() error {
	return b.bus.Close()
}
