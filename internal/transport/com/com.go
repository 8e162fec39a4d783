// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package com implements the legacy component binding of the automation API
// through COM IDispatch late binding.
//
// The helper is activated by its ProgID and the SAP2000 objects it returns are
// driven by name (CallMethod, GetProperty). By-reference OAPI arguments are
// passed as VT_VARIANT|VT_BYREF and read back after the call. All objects are
// owned by a single apartment thread; the transport must be closed to release
// them.
package com

import (
	"context"
	"fmt"
	"strings"

	"s2klaunch/cli/internal/transport"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// Transport implements transport.Transport over COM.
type Transport struct {
	apt  *apartment
	objs []*ole.IDispatch // owned; released on Close
}

var _ transport.Transport = (*Transport)(nil)

// Open initializes a COM apartment. It fails on systems without COM.
func Open() (*Transport, error) {
	apt, err := newApartment(func() error {
		return ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	}, ole.CoUninitialize)
	if err != nil {
		return nil, fmt.Errorf("com: initialize apartment: %w", err)
	}
	return &Transport{apt: apt}, nil
}

func (t *Transport) Mode() transport.Mode { return transport.ModeCOM }

// Close releases the helper, process and session objects this transport
// created. Running processes keep running.
func (t *Transport) Close() error {
	t.apt.stop(func() {
		for i := len(t.objs) - 1; i >= 0; i-- {
			t.objs[i].Release()
		}
		t.objs = nil
	})
	return nil
}

// own records d for release and returns it. Apartment thread only.
func (t *Transport) own(d *ole.IDispatch) *ole.IDispatch {
	t.objs = append(t.objs, d)
	return d
}

// dispatch upgrades an activated object to IDispatch. Apartment thread only.
func (t *Transport) dispatch(unk *ole.IUnknown, err error) (*ole.IDispatch, error) {
	if err != nil {
		return nil, err
	}
	defer unk.Release()
	d, err := unk.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, err
	}
	return t.own(d), nil
}

// Helper activates SAP2000v1.Helper and wraps it as cHelper.
func (t *Transport) Helper(ctx context.Context) (transport.Helper, error) {
	var h *helper
	err := t.apt.do(ctx, func() error {
		d, err := t.dispatch(oleutil.CreateObject(transport.HelperProgID))
		if err != nil {
			return fmt.Errorf("com: create %s: %w", transport.HelperProgID, err)
		}
		h = &helper{t: t, d: d}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// ActiveProcess binds to the running object registered under progID.
func (t *Transport) ActiveProcess(ctx context.Context, progID string) (transport.Process, error) {
	var p *process
	err := t.apt.do(ctx, func() error {
		d, err := t.dispatch(oleutil.GetActiveObject(progID))
		if err != nil {
			return fmt.Errorf("com: get active object %s: %w", progID, err)
		}
		p = &process{t: t, d: d}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// resolve walks a dotted sub-object path such as "File.Save" below root and
// returns the object owning the final method and that method's name. The
// intermediate objects stay alive until done is called; on error they are
// already released.
func resolve[T any](root T, path string, get func(T, string) (T, error), release func(T)) (target T, method string, done func(), err error) {
	parts := strings.Split(path, ".")
	var subs []T
	done = func() {
		for i := len(subs) - 1; i >= 0; i-- {
			release(subs[i])
		}
		subs = nil
	}
	target = root
	for _, name := range parts[:len(parts)-1] {
		sub, err := get(target, name)
		if err != nil {
			done()
			var zero T
			return zero, "", func() {}, err
		}
		subs = append(subs, sub)
		target = sub
	}
	return target, parts[len(parts)-1], done, nil
}

// property reads a sub-object property. The caller releases the result.
func property(d *ole.IDispatch, name string) (*ole.IDispatch, error) {
	v, err := oleutil.GetProperty(d, name)
	if err != nil {
		return nil, fmt.Errorf("com: get %s: %w", name, err)
	}
	sub := v.ToIDispatch()
	if sub == nil {
		v.Clear()
		return nil, fmt.Errorf("com: %s is not an object", name)
	}
	return sub, nil
}

func release(d *ole.IDispatch) { d.Release() }

// call invokes path on d and returns the integer status. Apartment thread only.
func (t *Transport) call(d *ole.IDispatch, path string, args ...any) (int, error) {
	target, method, done, err := resolve(d, path, property, release)
	if err != nil {
		return 0, err
	}
	defer done()
	v, err := oleutil.CallMethod(target, method, args...)
	if err != nil {
		return 0, fmt.Errorf("com: %s: %w", path, err)
	}
	defer v.Clear()
	return status(v), nil
}

// status reads an OAPI return value.
func status(v *ole.VARIANT) int {
	switch x := v.Value().(type) {
	case int32:
		return int(x)
	case int64:
		return int(x)
	case int16:
		return int(x)
	case int:
		return x
	}
	return int(v.Val)
}

// out allocates a by-reference argument slot.
func out() *ole.VARIANT {
	v := &ole.VARIANT{}
	ole.VariantInit(v)
	return v
}

func str(v *ole.VARIANT) string {
	if s, ok := v.Value().(string); ok {
		return s
	}
	return ""
}

func num(v *ole.VARIANT) float64 {
	switch x := v.Value().(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	}
	return 0
}

func strs(v *ole.VARIANT) []string {
	arr := v.ToArray()
	if arr == nil {
		return nil
	}
	defer arr.Release()
	return arr.ToStringArray()
}
