// Package scanner reads barcodes from capture devices.
//
// A capture device is anything that produces one barcode per line: a USB
// or RS-232 barcode reader exposed as a serial port, or a keyboard-wedge
// scanner typing into standard input. Every line is a frame. A frame
// holding a valid EAN-13, EAN-8 or UPC-A code decodes to a Result; any
// other frame is reported as ErrNotFound, which callers treat as noise.
//
// The Session interface is what the controller drives. LineSession is the
// implementation over a PortOpener, and SerialOpener is the PortOpener
// backed by go.bug.st/serial.
package scanner
