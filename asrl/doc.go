// Package asrl implements the SCPI transport over a serial port, either a
// physical RS-232 line or the virtual COM port of a USB instrument.
//
// The connection string is "port[:baud]", e.g. "/dev/ttyUSB0" or
// "COM3:9600". The line defaults to 115200 baud, 8N1.
package asrl
