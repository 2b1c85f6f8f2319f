// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hostip finds the address this machine would use for outbound
// traffic. A UDP "connect" picks the route without sending a packet, so the
// local end of that socket is the answer.
package hostip

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	DefaultTarget   = "8.8.8.8:80"
	DefaultFallback = "127.0.0.1"
	DefaultTimeout  = 2 * time.Second
)

// 🏷️ Source says where a discovered address came from
type Source string

const (
	SourceStatic    Source = "static"
	SourceUDP       Source = "udp"
	SourceInterface Source = "interface"
	SourceFallback  Source = "fallback"
)

// 🔌 Dialer is satisfied by *net.Dialer
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// 🔧 Options configures a Resolver
type Options struct {
	Static            string        // Use this address and skip discovery
	Target            string        // host:port the UDP socket is pointed at
	Timeout           time.Duration // Upper bound for the dial
	Fallback          string        // Address used when discovery fails
	InterfaceFallback bool          // Try interface enumeration before Fallback
}

// Result is the outcome of Discover. Err holds the discovery failure, if
// any, even when a fallback address was produced.
type Result struct {
	IP     net.IP
	Source Source
	Err    error
}

func (r Result) String() string {
	return r.IP.String()
}

// 🌐 Resolver discovers the outbound address
type Resolver struct {
	opts           Options
	dialer         Dialer
	interfaceAddrs func() ([]net.Addr, error)
}

// 🏭 NewResolver creates a resolver, filling unset options with defaults
func NewResolver(opts Options) *Resolver {
	if opts.Target == "" {
		opts.Target = DefaultTarget
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Fallback == "" {
		opts.Fallback = DefaultFallback
	}
	return &Resolver{
		opts:           opts,
		dialer:         &net.Dialer{Timeout: opts.Timeout},
		interfaceAddrs: net.InterfaceAddrs,
	}
}

// WithDialer replaces the dialer used for the UDP probe
func (r *Resolver) WithDialer(d Dialer) *Resolver {
	r.dialer = d
	return r
}

// WithInterfaceAddrs replaces the interface address lister
func (r *Resolver) WithInterfaceAddrs(fn func() ([]net.Addr, error)) *Resolver {
	r.interfaceAddrs = fn
	return r
}

// 🔍 Discover returns an address and never fails. Order: static override,
// UDP probe, interface enumeration (when enabled), fallback.
func (r *Resolver) Discover(ctx context.Context) Result {
	logger := zerolog.Ctx(ctx)

	var staticErr error
	if r.opts.Static != "" {
		if ip := net.ParseIP(r.opts.Static); ip != nil {
			return Result{IP: ip, Source: SourceStatic}
		}
		staticErr = errors.Errorf("invalid static address %q", r.opts.Static)
		logger.Warn().Err(staticErr).Msg("ignoring static address")
	}

	ip, err := r.outbound(ctx)
	if err == nil {
		logger.Debug().Str("ip", ip.String()).Str("target", r.opts.Target).Msg("discovered outbound address")
		return Result{IP: ip, Source: SourceUDP, Err: staticErr}
	}

	if r.opts.InterfaceFallback {
		ifIP, ifErr := r.firstInterfaceIP()
		if ifErr == nil {
			logger.Debug().Err(err).Str("ip", ifIP.String()).Msg("using interface address")
			return Result{IP: ifIP, Source: SourceInterface, Err: err}
		}
		logger.Debug().Err(ifErr).Msg("interface enumeration failed")
	}

	fallback := net.ParseIP(r.opts.Fallback)
	if fallback == nil {
		fallback = net.ParseIP(DefaultFallback)
	}
	logger.Warn().Err(err).Str("fallback", fallback.String()).Msg("address discovery failed")
	return Result{IP: fallback, Source: SourceFallback, Err: err}
}

func (r *Resolver) outbound(ctx context.Context) (net.IP, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	conn, err := r.dialer.DialContext(ctx, "udp", r.opts.Target)
	if err != nil {
		return nil, errors.Errorf("dialing %s: %w", r.opts.Target, err)
	}
	defer conn.Close()

	return localIP(conn.LocalAddr())
}

func localIP(addr net.Addr) (net.IP, error) {
	if addr == nil {
		return nil, errors.Errorf("socket has no local address")
	}

	var ip net.IP
	switch a := addr.(type) {
	case *net.UDPAddr:
		ip = a.IP
	case *net.TCPAddr:
		ip = a.IP
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return nil, errors.Errorf("parsing local address %q: %w", addr.String(), err)
		}
		ip = net.ParseIP(host)
	}

	if ip == nil || ip.IsUnspecified() {
		return nil, errors.Errorf("unusable local address %q", addr.String())
	}
	return ip, nil
}

// firstInterfaceIP returns the first non-loopback, non-link-local IPv4 address
func (r *Resolver) firstInterfaceIP() (net.IP, error) {
	addrs, err := r.interfaceAddrs()
	if err != nil {
		return nil, errors.Errorf("listing interface addresses: %w", err)
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP.To4()
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		return ip, nil
	}
	return nil, errors.Errorf("no usable interface address")
}
