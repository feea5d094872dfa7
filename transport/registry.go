package transport

import (
	"errors"
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// Factory creates a connected Transport from a link specific connection string.
type Factory func(args string) (Transport, error)

var factories = xsync.NewMapOf[string, Factory]()

// Register makes a transport factory available under name.
//
// Link packages call Register from their init function. Registering the same
// name twice replaces the previous factory.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		panic("transport: Register with empty name or nil factory")
	}
	factories.Store(name, f)
}

// Unregister removes the factory registered under name.
func Unregister(name string) {
	factories.Delete(name)
}

// Create creates a transport of the named type connected to args.
func Create(name string, args string) (Transport, error) {
	f, ok := factories.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, name)
	}

	t, err := f(args)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.New("scpi: transport factory returned nil")
	}

	return t, nil
}

// Names returns the sorted names of all registered transports.
func Names() []string {
	names := make([]string, 0, factories.Size())
	factories.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)

	return names
}
