package bus

import "fmt"

// Write records a single register write seen by FakeBus.
type Write struct {
	Addr     byte
	Register byte
	Value    byte
}

// FakeBus is a test double holding one 256-byte register file per device
// address, indexed by the full register byte. A write of [reg, v...] stores v at consecutive registers; a write-read of
// [reg] returns consecutive registers starting at reg.
type FakeBus struct {
	Registers map[byte]*[256]byte

	// Writes logs every register store, in order.
	Writes []Write

	// FailRead and FailWrite make any transfer touching the register fail.
	FailRead  map[byte]bool
	FailWrite map[byte]bool

	// Reads counts successful register reads.
	Reads int
}

func NewFakeBus() *FakeBus {
	return &FakeBus{
		Registers: make(map[byte]*[256]byte),
		FailRead:  make(map[byte]bool),
		FailWrite: make(map[byte]bool),
	}
}

func (f *FakeBus) registers(addr byte) *[256]byte {
	regs, ok := f.Registers[addr]
	if !ok {
		regs = &[256]byte{}
		f.Registers[addr] = regs
	}
	return regs
}

// Set preloads a register without recording a write.
func (f *FakeBus) Set(addr, register, value byte) {
	f.registers(addr)[register] = value
}

// Get returns the current register content.
func (f *FakeBus) Get(addr, register byte) byte {
	return f.registers(addr)[register]
}

func (f *FakeBus) Write(addr byte, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty write", ErrTransaction)
	}
	reg := data[0]
	for i := range data[1:] {
		if f.FailWrite[reg+byte(i)] {
			return fmt.Errorf("%w: injected write failure at register 0x%02x", ErrTransaction, reg+byte(i))
		}
	}
	regs := f.registers(addr)
	for i, v := range data[1:] {
		r := reg + byte(i)
		regs[r] = v
		f.Writes = append(f.Writes, Write{Addr: addr, Register: r, Value: v})
	}
	return nil
}

func (f *FakeBus) WriteRead(addr byte, request, response []byte) error {
	if len(request) != 1 {
		return fmt.Errorf("%w: expected single register pointer, got %d bytes", ErrTransaction, len(request))
	}
	reg := request[0]
	for i := range response {
		if f.FailRead[reg+byte(i)] {
			return fmt.Errorf("%w: injected read failure at register 0x%02x", ErrTransaction, reg+byte(i))
		}
	}
	regs := f.registers(addr)
	for i := range response {
		response[i] = regs[reg+byte(i)]
	}
	f.Reads++
	return nil
}
