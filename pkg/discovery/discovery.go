// Package discovery locates the battery device on the local network
// via mDNS.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Service type advertised by the battery's network dongle.
const (
	ServiceType = "_bess-api._tcp"
	Domain      = "local."
)

// DefaultTimeout bounds a Find call when the context has no deadline.
const DefaultTimeout = 15 * time.Second

// ErrNotFound is returned when no device answered within the timeout.
var ErrNotFound = errors.New("no battery device found")

// Service describes a discovered battery device.
type Service struct {
	// Instance is the mDNS instance name.
	Instance string

	// Host is the advertised hostname.
	Host string

	// Addrs are the resolved addresses, IPv4 first.
	Addrs []string

	// Port is the advertised API port.
	Port int

	// Fingerprint is the stable short identifier derived from the
	// instance name, used to correlate log events.
	Fingerprint string
}

// Address returns the preferred host:port to connect to.
func (s *Service) Address() string {
	if len(s.Addrs) > 0 {
		return net.JoinHostPort(s.Addrs[0], fmt.Sprint(s.Port))
	}
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// Config configures browsing behavior.
type Config struct {
	// Timeout bounds the browse. Defaults to DefaultTimeout when zero.
	Timeout time.Duration

	// Interface restricts browsing to one network interface.
	// Empty means all interfaces.
	Interface string
}

// Find browses for battery devices and returns the first one discovered.
func Find(ctx context.Context, cfg Config) (*Service, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		// Browse closes both channels itself once the context ends;
		// it leaves them open only when it fails before browsing, so
		// close them on that path to let the receivers exit.
		if err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, browseOptions(cfg)...); err != nil {
			close(entries)
			close(removed)
		}
	}()

	go func() {
		// Removals are irrelevant for a one-shot find; drain them.
		for range removed {
		}
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return nil, ErrNotFound
			}
			if entry == nil {
				continue
			}
			return entryToService(entry), nil
		case <-ctx.Done():
			return nil, ErrNotFound
		}
	}
}

func browseOptions(cfg Config) []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if cfg.Interface != "" {
		if iface, err := net.InterfaceByName(cfg.Interface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

func entryToService(entry *zeroconf.ServiceEntry) *Service {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &Service{
		Instance:    entry.Instance,
		Host:        entry.HostName,
		Addrs:       addrs,
		Port:        entry.Port,
		Fingerprint: Fingerprint(entry.Instance),
	}
}
