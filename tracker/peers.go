package tracker

import (
	"encoding/binary"
	"io"
	"net"

	"bitTorrent/bencode"
	"bitTorrent/peerset"
)

func decodeAll(r io.Reader) (bencode.Value, int, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return bencode.Value{}, 0, err
	}
	return bencode.Decode(b)
}

// parseDictPeer decodes one {ip, port} dictionary entry of the mandatory
// dictionary-model peer list (spec §6 form (a)).
func parseDictPeer(v bencode.Value) (peerset.Endpoint, bool) {
	if v.Kind != bencode.KindDict {
		return peerset.Endpoint{}, false
	}
	ipV, ok := v.Get("ip")
	if !ok {
		return peerset.Endpoint{}, false
	}
	portV, ok := v.Get("port")
	if !ok || portV.Kind != bencode.KindInt {
		return peerset.Endpoint{}, false
	}
	ip := net.ParseIP(string(ipV.Bytes))
	if ip == nil {
		return peerset.Endpoint{}, false
	}
	return peerset.Endpoint{IP: ip, Port: uint16(portV.Int)}, true
}

// parseCompactPeers decodes the optional compact byte-string form (spec §6
// form (b)): 6 bytes per peer, 4-byte big-endian IPv4 then 2-byte
// big-endian port.
func parseCompactPeers(b []byte) []peerset.Endpoint {
	const size = 6
	n := len(b) / size
	out := make([]peerset.Endpoint, 0, n)
	for i := 0; i < n; i++ {
		off := i * size
		ip := net.IP(append([]byte(nil), b[off:off+4]...))
		port := binary.BigEndian.Uint16(b[off+4 : off+6])
		out = append(out, peerset.Endpoint{IP: ip, Port: port})
	}
	return out
}
