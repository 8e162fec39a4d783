// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge implements the managed-runtime binding of the automation API.
//
// The .NET assembly SAP2000v1.dll cannot be loaded into a Go process, so it is
// hosted by a bridge process that exposes every OAPI object over one gRPC
// method. A call names a target object handle (empty for the bridge root), a
// method or dotted sub-object path such as "File.Save", and positional
// arguments. Requests and replies are google.protobuf.Struct messages:
//
//	request: {target: string, method: string, args: [...]}
//	reply:   {status: number, handle: string, values: [...]}
//
// Calls that return an OAPI object (the helper, a cOAPI process, its SapModel)
// reply with a handle, which this package wraps into the matching transport
// type. This is the Go counterpart of wrapping raw objects as cOAPI(...) and
// cSapModel(...) in the .NET API.
package bridge

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"s2klaunch/cli/internal/transport"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// InvokeMethod is the full gRPC method name served by the bridge host.
const InvokeMethod = "/s2k.bridge.v1.Automation/Invoke"

// DefaultPort is used when the address has no port.
const DefaultPort = "50851"

// Options configures Dial.
type Options struct {
	// Address is host or host:port of the bridge.
	Address string
	// Token is sent as a bearer token when non-empty.
	Token string
	// Insecure disables TLS. Loopback addresses never use TLS.
	Insecure bool
	// DialTimeout bounds connection establishment only; calls have no deadline.
	DialTimeout time.Duration
}

// Transport implements transport.Transport over a bridge connection.
type Transport struct {
	conn  *grpc.ClientConn
	token string
}

var _ transport.Transport = (*Transport)(nil)

// Dial connects to the bridge host and blocks until the connection is ready.
func Dial(ctx context.Context, opts Options) (*Transport, error) {
	host := opts.Address
	if h, _, err := net.SplitHostPort(opts.Address); err == nil {
		host = h
	}
	target := opts.Address
	if _, _, err := net.SplitHostPort(opts.Address); err != nil {
		target = net.JoinHostPort(opts.Address, DefaultPort)
	}

	creds := insecure.NewCredentials()
	if !opts.Insecure && !isLoopback(host) {
		creds = credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	}

	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := grpc.DialContext(dctx, target, grpc.WithTransportCredentials(creds), grpc.WithBlock())
	if err != nil {
		return nil, fmt.Errorf("dial bridge %s: %w", target, err)
	}
	return &Transport{conn: conn, token: opts.Token}, nil
}

// NewWithConn wraps an established connection.
func NewWithConn(conn *grpc.ClientConn, token string) *Transport {
	return &Transport{conn: conn, token: token}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (t *Transport) Mode() transport.Mode { return transport.ModeNET }

func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// reply is a decoded bridge response.
type reply struct {
	status int
	handle string
	values []*structpb.Value
}

func (r reply) str(i int) string {
	if i < len(r.values) {
		return r.values[i].GetStringValue()
	}
	return ""
}

func (r reply) num(i int) float64 {
	if i < len(r.values) {
		return r.values[i].GetNumberValue()
	}
	return 0
}

func (t *Transport) invoke(ctx context.Context, target, method string, args ...any) (reply, error) {
	if args == nil {
		args = []any{}
	}
	req, err := structpb.NewStruct(map[string]any{
		"target": target,
		"method": method,
		"args":   args,
	})
	if err != nil {
		return reply{}, fmt.Errorf("bridge %s: encode arguments: %w", method, err)
	}
	if t.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+t.token)
	}
	resp := &structpb.Struct{}
	if err := t.conn.Invoke(ctx, InvokeMethod, req, resp); err != nil {
		return reply{}, fmt.Errorf("bridge %s: %w", method, err)
	}
	f := resp.GetFields()
	return reply{
		status: int(f["status"].GetNumberValue()),
		handle: f["handle"].GetStringValue(),
		values: f["values"].GetListValue().GetValues(),
	}, nil
}

// object invokes a call that must return an object handle.
func (t *Transport) object(ctx context.Context, target, method string, args ...any) (string, error) {
	r, err := t.invoke(ctx, target, method, args...)
	if err != nil {
		return "", err
	}
	if r.handle == "" {
		return "", fmt.Errorf("bridge %s: no object returned (status %d)", method, r.status)
	}
	return r.handle, nil
}

// Helper creates cHelper(new Helper()) on the bridge host.
func (t *Transport) Helper(ctx context.Context) (transport.Helper, error) {
	h, err := t.object(ctx, "", "Helper")
	if err != nil {
		return nil, err
	}
	return &helper{t: t, handle: h}, nil
}

// ActiveProcess attaches through cHelper.GetObject.
func (t *Transport) ActiveProcess(ctx context.Context, progID string) (transport.Process, error) {
	h, err := t.Helper(ctx)
	if err != nil {
		return nil, err
	}
	return h.(*helper).wrap(ctx, "GetObject", progID)
}

type helper struct {
	t      *Transport
	handle string
}

// wrap calls a helper factory method and wraps the result as cOAPI.
func (h *helper) wrap(ctx context.Context, method string, args ...any) (transport.Process, error) {
	p, err := h.t.object(ctx, h.handle, method, args...)
	if err != nil {
		return nil, err
	}
	return &process{t: h.t, handle: p}, nil
}

func (h *helper) CreateFromPath(ctx context.Context, path string) (transport.Process, error) {
	return h.wrap(ctx, "CreateObject", path)
}

func (h *helper) CreateFromProgID(ctx context.Context, progID string) (transport.Process, error) {
	return h.wrap(ctx, "CreateObjectProgID", progID)
}

func (h *helper) CreateFromProgIDHost(ctx context.Context, host, progID string) (transport.Process, error) {
	return h.wrap(ctx, "CreateObjectProgIDHost", host, progID)
}

type process struct {
	t      *Transport
	handle string
}

func (p *process) call(ctx context.Context, method string, args ...any) (int, error) {
	r, err := p.t.invoke(ctx, p.handle, method, args...)
	return r.status, err
}

func (p *process) Start(ctx context.Context) (int, error) {
	return p.call(ctx, "ApplicationStart")
}

func (p *process) Exit(ctx context.Context, save bool) (int, error) {
	return p.call(ctx, "ApplicationExit", save)
}

func (p *process) Session(ctx context.Context) (transport.Session, error) {
	h, err := p.t.object(ctx, p.handle, "SapModel")
	if err != nil {
		return nil, err
	}
	return &session{t: p.t, handle: h}, nil
}
