// Package lan implements the SCPI transport over a raw TCP socket, the
// "SOCKET" resource of LAN instruments, conventionally on port 5025.
//
// The connection string is "host[:port]". Messages are framed with the same
// staging buffer logic as the usbtmc transport; a TCP stream delivers the
// bytes, net.Conn read deadlines bound each read.
//
// A stream socket accepts several ';'-joined commands in one write, so
// IsCommandBatchingSupported returns true.
package lan
