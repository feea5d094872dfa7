// Package transport defines the contract every SCPI link implements and the
// error taxonomy shared by all links.
//
// A Transport moves SCPI text commands and replies, and raw binary blocks,
// between the host and a single instrument. The protocol is half-duplex: a
// command completes before its reply is read, and a reply is fully drained
// before the next command is sent. Transports do no internal locking; callers
// that share a Transport between goroutines must serialize access themselves.
//
// Concrete links live in sibling packages (usbtmc, lan, asrl). Each registers
// a Factory under its transport name so that higher layers can create a link
// from a (name, connection string) pair:
//
//	t, err := transport.Create("usbtmc", "/dev/usbtmc0")
//	if err != nil {
//	    return err
//	}
//	defer t.Close()
//
//	if err := t.SendCommand("*IDN?"); err != nil {
//	    return err
//	}
//	idn, err := t.ReadReply(false)
package transport
