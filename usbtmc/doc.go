// Package usbtmc implements the SCPI transport for USB Test & Measurement
// Class instruments exposed by the Linux usbtmc driver as /dev/usbtmcN
// character devices.
//
// The connection string is the device path, optionally followed by the
// transfer size used for staging buffer refills:
//
//	/dev/usbtmc0
//	/dev/usbtmc0:256
//
// Some instrument firmware and driver combinations return spurious
// zero-length reads or fail on large bulk-in requests; WithFixBuggyDriver
// enables tolerance for both.
//
// The package registers itself with the transport registry under the name
// "usbtmc", so a blank import is enough for transport.Create:
//
//	import _ "github.com/arloliu/go-scpi/usbtmc"
//
// USB-TMC does not reliably accept several commands in one bulk-out
// transfer, so IsCommandBatchingSupported always returns false.
package usbtmc
