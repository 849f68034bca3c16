// Package discovery advertises a running master over mDNS/DNS-SD and
// lets a worker started without an explicit address browse for one on
// the local network.
package discovery

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

// ServiceType is the DNS-SD service type rolymo masters advertise under.
const ServiceType = "_rolymo._tcp"

// DefaultServiceName returns "rolymo on <hostname>", or "rolymo" if the
// hostname can't be read.
func DefaultServiceName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "rolymo"
	}
	hostname, _, _ = strings.Cut(hostname, ".")
	return "rolymo on " + hostname
}

// Announce advertises a master listening on port under name, returning
// once the service is registered. The responder keeps running in the
// background until ctx is cancelled.
func Announce(ctx context.Context, name string, port int, logger *log.Logger) error {
	if name == "" {
		name = DefaultServiceName()
	}

	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	service, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("discovery: create service: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("discovery: create responder: %w", err)
	}

	if _, err := responder.Add(service); err != nil {
		return fmt.Errorf("discovery: add service: %w", err)
	}

	logger.Info("announcing master", "name", name, "port", port, "type", ServiceType)

	go func() {
		if err := responder.Respond(ctx); err != nil && ctx.Err() == nil {
			logger.Error("dns-sd responder stopped", "err", err)
		}
	}()

	return nil
}

// Peer is one master found by Browse.
type Peer struct {
	Name string
	Addr string // host:port
}

// Browse listens for rolymo masters on the local network for timeout,
// returning every distinct peer seen. Used when a worker is started
// without --master; explicit --master always takes precedence over
// this.
func Browse(ctx context.Context, timeout time.Duration, logger *log.Logger) ([]Peer, error) {
	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var peers []Peer
	seen := make(map[string]bool)

	addFn := func(e dnssd.BrowseEntry) {
		for _, ip := range e.IPs {
			addr := fmt.Sprintf("%s:%d", ip.String(), e.Port)
			if seen[addr] {
				continue
			}
			seen[addr] = true
			peers = append(peers, Peer{Name: e.Name, Addr: addr})
			logger.Debug("found master", "name", e.Name, "addr", addr)
		}
	}
	rmvFn := func(e dnssd.BrowseEntry) {}

	if err := dnssd.LookupType(browseCtx, ServiceType, addFn, rmvFn); err != nil && browseCtx.Err() == nil {
		return nil, fmt.Errorf("discovery: browse: %w", err)
	}

	return peers, nil
}
