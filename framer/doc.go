// Package framer turns an unreliable block-transfer device into a framed
// SCPI message stream.
//
// A Framer owns a Device and a fixed-size staging buffer. Text replies are
// reassembled from however many device reads it takes, ending at the line
// terminator (or at ';' on request). Bytes read past the end of one reply stay
// buffered for the next ReadReply or ReadRawData call. Binary blocks of a
// known length are served from the staging buffer first and then read straight
// from the device.
//
// Drivers that return spurious zero-length reads are tolerated: with
// Config.FixBuggyDriver set, up to Config.QuirkRetryLimit consecutive empty reads
// are retried immediately and exceeding the limit is an ErrProtocol failure.
// Without it, empty reads are retried until the read timeout runs out.
//
// A Framer is not goroutine-safe. SCPI is half-duplex, so the owning transport
// issues one operation at a time.
package framer
