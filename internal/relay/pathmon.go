package relay

import (
	"net"
	"time"
)

// PathMonitor reports OS-level network availability. "The network exists"
// and "the peer session is usable" are distinct conditions; a restored
// path while the session is down is the cue to try reconnecting.
type PathMonitor interface {
	Updates() <-chan bool
	Close() error
}

// InterfaceMonitor polls the host's interfaces and emits an update
// whenever a usable non-loopback address appears or disappears.
type InterfaceMonitor struct {
	ch   chan bool
	done chan struct{}
}

func NewInterfaceMonitor(interval time.Duration) *InterfaceMonitor {
	m := &InterfaceMonitor{
		ch:   make(chan bool, 1),
		done: make(chan struct{}),
	}
	go m.poll(interval)
	return m
}

func (m *InterfaceMonitor) Updates() <-chan bool {
	return m.ch
}

func (m *InterfaceMonitor) Close() error {
	close(m.done)
	return nil
}

func (m *InterfaceMonitor) poll(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := hasUsableAddress()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			up := hasUsableAddress()
			if up == last {
				continue
			}
			last = up
			select {
			case m.ch <- up:
			default:
			}
		}
	}
}

func hasUsableAddress() bool {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ipNet.IP.To4() != nil || ipNet.IP.To16() != nil {
			return true
		}
	}
	return false
}

// ManualMonitor lets tests and embedders push path changes directly.
type ManualMonitor struct {
	ch chan bool
}

func NewManualMonitor() *ManualMonitor {
	return &ManualMonitor{ch: make(chan bool, 4)}
}

func (m *ManualMonitor) Set(up bool) {
	m.ch <- up
}

func (m *ManualMonitor) Updates() <-chan bool {
	return m.ch
}

func (m *ManualMonitor) Close() error {
	return nil
}
