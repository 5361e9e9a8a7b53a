// Package bus abstracts the register-addressed two-wire bus used to talk to the
// real-time clock. The real implementation sits on the Linux i2c device;
// the fake keeps an in-memory register file for tests.
package bus

import "errors"

// ErrTransaction is returned for any failed bus transfer.
var ErrTransaction = errors.New("bus transaction failed")

// Transactor performs raw transfers against a 7-bit device address.
type Transactor interface {
	// Write sends data to the device in a single transfer.
	Write(addr byte, data []byte) error

	// WriteRead sends request and then fills response from the device.
	WriteRead(addr byte, request, response []byte) error
}
