package shared

import (
	"net"
)

// LocalIP returns the address of the interface used for outbound traffic, which is the address a phone on the
// same network can reach. No packets are sent. Falls back to 127.0.0.1.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return firstPrivateIP()
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && !addr.IP.IsUnspecified() {
		return addr.IP.String()
	}
	return firstPrivateIP()
}

func firstPrivateIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip := ipnet.IP.To4(); ip != nil && ip.IsPrivate() {
			return ip.String()
		}
	}
	return "127.0.0.1"
}
