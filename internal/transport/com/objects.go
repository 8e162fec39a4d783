// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package com

import (
	"context"
	"fmt"

	"s2klaunch/cli/internal/transport"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

type helper struct {
	t *Transport
	d *ole.IDispatch
}

// create calls a helper factory method and wraps the returned cOAPI object.
func (h *helper) create(ctx context.Context, method string, args ...any) (transport.Process, error) {
	var p *process
	err := h.t.apt.do(ctx, func() error {
		v, err := oleutil.CallMethod(h.d, method, args...)
		if err != nil {
			return fmt.Errorf("com: %s: %w", method, err)
		}
		d := v.ToIDispatch()
		if d == nil {
			return fmt.Errorf("com: %s returned no object", method)
		}
		p = &process{t: h.t, d: h.t.own(d)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (h *helper) CreateFromPath(ctx context.Context, path string) (transport.Process, error) {
	return h.create(ctx, "CreateObject", path)
}

func (h *helper) CreateFromProgID(ctx context.Context, progID string) (transport.Process, error) {
	return h.create(ctx, "CreateObjectProgID", progID)
}

func (h *helper) CreateFromProgIDHost(ctx context.Context, host, progID string) (transport.Process, error) {
	return h.create(ctx, "CreateObjectProgIDHost", host, progID)
}

type process struct {
	t *Transport
	d *ole.IDispatch
}

func (p *process) call(ctx context.Context, method string, args ...any) (int, error) {
	var ret int
	err := p.t.apt.do(ctx, func() (err error) {
		ret, err = p.t.call(p.d, method, args...)
		return err
	})
	return ret, err
}

func (p *process) Start(ctx context.Context) (int, error) {
	return p.call(ctx, "ApplicationStart")
}

func (p *process) Exit(ctx context.Context, save bool) (int, error) {
	return p.call(ctx, "ApplicationExit", save)
}

func (p *process) Session(ctx context.Context) (transport.Session, error) {
	var s *session
	err := p.t.apt.do(ctx, func() error {
		v, err := oleutil.GetProperty(p.d, "SapModel")
		if err != nil {
			return fmt.Errorf("com: get SapModel: %w", err)
		}
		d := v.ToIDispatch()
		if d == nil {
			return fmt.Errorf("com: SapModel is not an object")
		}
		s = &session{t: p.t, d: p.t.own(d)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// session is a cSapModel object.
type session struct {
	t *Transport
	d *ole.IDispatch
}

func (s *session) call(ctx context.Context, path string, args ...any) (int, error) {
	var ret int
	err := s.t.apt.do(ctx, func() (err error) {
		ret, err = s.t.call(s.d, path, args...)
		return err
	})
	return ret, err
}

func (s *session) InitializeNewModel(ctx context.Context) (int, error) {
	return s.call(ctx, "InitializeNewModel")
}

func (s *session) Version(ctx context.Context) (transport.Version, int, error) {
	var (
		v   transport.Version
		ret int
	)
	err := s.t.apt.do(ctx, func() (err error) {
		name, number := out(), out()
		defer name.Clear()
		defer number.Clear()
		ret, err = s.t.call(s.d, "GetVersion", name, number)
		v = transport.Version{External: str(name), Internal: num(number)}
		return err
	})
	return v, ret, err
}

func (s *session) NewBlank(ctx context.Context) (int, error) {
	return s.call(ctx, "File.NewBlank")
}

func (s *session) SetPresentUnits(ctx context.Context, units int) (int, error) {
	return s.call(ctx, "SetPresentUnits", int32(units))
}

func (s *session) SetProjectInfo(ctx context.Context, item, data string) (int, error) {
	return s.call(ctx, "SetProjectInfo", item, data)
}

// DeleteAllMaterials lists the defined materials and deletes each one.
func (s *session) DeleteAllMaterials(ctx context.Context) (int, error) {
	var ret int
	err := s.t.apt.do(ctx, func() (err error) {
		count, names := out(), out()
		defer count.Clear()
		defer names.Clear()
		ret, err = s.t.call(s.d, "PropMaterial.GetNameList", count, names)
		if err != nil || ret != 0 {
			return err
		}
		for _, name := range strs(names) {
			ret, err = s.t.call(s.d, "PropMaterial.Delete", name)
			if err != nil || ret != 0 {
				return err
			}
		}
		return nil
	})
	return ret, err
}

func (s *session) RefreshView(ctx context.Context, window int, zoom bool) (int, error) {
	return s.call(ctx, "View.RefreshView", int32(window), zoom)
}

func (s *session) Save(ctx context.Context, path string) (int, error) {
	return s.call(ctx, "File.Save", path)
}

func (s *session) SetGroup(ctx context.Context, name string) (int, error) {
	return s.call(ctx, "GroupDef.SetGroup", name)
}

func (s *session) ProgramInfo(ctx context.Context) (transport.ProgramInfo, int, error) {
	var (
		info transport.ProgramInfo
		ret  int
	)
	err := s.t.apt.do(ctx, func() (err error) {
		name, version, level := out(), out(), out()
		defer name.Clear()
		defer version.Clear()
		defer level.Clear()
		ret, err = s.t.call(s.d, "GetProgramInfo", name, version, level)
		info = transport.ProgramInfo{Name: str(name), Version: str(version), Level: str(level)}
		return err
	})
	return info, ret, err
}
