package peerset

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ep(ip string, port uint16) Endpoint {
	return Endpoint{IP: net.ParseIP(ip), Port: port}
}

func TestAddIsIdempotent(t *testing.T) {
	s := New()
	s.Add(ep("1.2.3.4", 6881))
	s.Add(ep("1.2.3.4", 6881))
	assert.Equal(t, 1, s.Len())
}

func TestTakeRemovesAndReturns(t *testing.T) {
	s := New()
	e := ep("1.2.3.4", 6881)
	s.Add(e)
	assert.True(t, s.Known(e))

	got, ok := s.Take()
	assert.True(t, ok)
	assert.Equal(t, e, got)
	assert.False(t, s.Known(e))

	_, ok = s.Take()
	assert.False(t, ok)
}

func TestFIFOOrder(t *testing.T) {
	s := New()
	s.Add(ep("1.1.1.1", 1))
	s.Add(ep("2.2.2.2", 2))
	first, _ := s.Take()
	assert.Equal(t, "1.1.1.1", first.IP.String())
}
