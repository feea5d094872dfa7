package usbtmc

import (
	"errors"
	"testing"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOpen_QueryRoundTrip(t *testing.T) {
	tr, dev := newTestTransport(t)
	dev.queue("RIGOL TECHNOLOGIES,DS1104Z,DS1ZA000000001,00.04.04\n")

	require.NoError(t, tr.SendCommand("*IDN?"))
	assert.Equal(t, "*IDN?\n", dev.written.String())

	reply, err := tr.ReadReply(false)
	require.NoError(t, err)
	assert.Equal(t, "RIGOL TECHNOLOGIES,DS1104Z,DS1ZA000000001,00.04.04", reply)
}

func TestTransport_Identity(t *testing.T) {
	tr, _ := newTestTransport(t)

	assert.Equal(t, "/dev/usbtmc0", tr.ConnectionString())
	assert.Equal(t, "/dev/usbtmc0", tr.DevicePath())
	assert.Equal(t, TransportName, tr.TransportName())
	assert.False(t, tr.IsCommandBatchingSupported())
	assert.True(t, tr.IsConnected())
}

func TestTransport_WaveformBlock(t *testing.T) {
	tr, dev := newTestTransport(t, WithTransferSize(8))

	// "#9000000010" header followed by a 10 byte payload and a newline.
	dev.queue("#90000000", "10\x01\x02\x03", "\x04\x05\x06\x07\x08\x09\x0a\n")

	header := make([]byte, 11)
	n, err := tr.ReadRawData(header)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "#9000000010", string(header))

	payload := make([]byte, 10)
	n, err = tr.ReadRawData(payload)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, payload)

	trailer, err := tr.ReadReply(false)
	require.NoError(t, err)
	assert.Empty(t, trailer)
}

func TestTransport_PendingDetectsUnreadReply(t *testing.T) {
	tr, dev := newTestTransport(t)
	dev.queue("1\n2\n")

	_, err := tr.ReadReply(false)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Pending())
}

func TestTransport_FlushRXBuffer(t *testing.T) {
	tr, dev := newTestTransport(t)
	dev.queue("old\nolder\n")

	_, err := tr.ReadReply(false)
	require.NoError(t, err)

	tr.FlushRXBuffer()
	tr.FlushRXBuffer()
	assert.Zero(t, tr.Pending())
	assert.Equal(t, 2, dev.clears)
}

func TestTransport_ReadTimeout(t *testing.T) {
	tr, dev := newTestTransport(t)
	dev.queue("no terminator")

	_, err := tr.ReadReply(false)
	require.Error(t, err)
	assert.True(t, transport.IsTimeout(err))
	assert.True(t, tr.IsConnected())
}

func TestTransport_Close(t *testing.T) {
	l := logger.NewMockLogger()
	l.On("With", mock.Anything).Return(l)
	l.On("Debug", mock.Anything, mock.Anything).Return().Maybe()
	l.On("Info", "usbtmc: device opened", mock.Anything).Return().Once()
	l.On("Info", "usbtmc: device closed", mock.Anything).Return().Once()

	dev := &fakeDevice{}
	tr, err := Open("/dev/usbtmc0",
		WithLogger(l),
		WithDeviceOpener(func(string) (framer.Device, error) { return dev, nil }),
	)
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.True(t, dev.closed)
	assert.False(t, tr.IsConnected())

	err = tr.SendCommand("*RST")
	assert.ErrorIs(t, err, transport.ErrConnection)
	l.AssertExpectations(t)
}

func TestOpen_DeviceMissing(t *testing.T) {
	_, err := Open("/dev/usbtmc0",
		WithLogger(logger.NewMockLogger().AllowAll()),
		WithDeviceOpener(func(string) (framer.Device, error) {
			return nil, errors.New("no such file or directory")
		}),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrConnection)
	assert.Contains(t, err.Error(), "/dev/usbtmc0")
}

func TestOpen_RealPathMissing(t *testing.T) {
	_, err := Open("/nonexistent/usbtmc99", WithLogger(logger.NewMockLogger().AllowAll()))
	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrConnection)
}

func TestRegistry_CreateUsbtmc(t *testing.T) {
	assert.Contains(t, transport.Names(), TransportName)

	_, err := transport.Create(TransportName, "/nonexistent/usbtmc99")
	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrConnection)
}
