// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"

	"s2klaunch/cli/internal/transport"
)

// session is a cSapModel handle on the bridge host. In the .NET API the
// status is the return value and by-ref arguments come back as values.
type session struct {
	t      *Transport
	handle string
}

func (s *session) call(ctx context.Context, method string, args ...any) (int, error) {
	r, err := s.t.invoke(ctx, s.handle, method, args...)
	return r.status, err
}

func (s *session) InitializeNewModel(ctx context.Context) (int, error) {
	return s.call(ctx, "InitializeNewModel")
}

func (s *session) Version(ctx context.Context) (transport.Version, int, error) {
	r, err := s.t.invoke(ctx, s.handle, "GetVersion", "", 0)
	if err != nil {
		return transport.Version{}, 0, err
	}
	return transport.Version{External: r.str(0), Internal: r.num(1)}, r.status, nil
}

func (s *session) NewBlank(ctx context.Context) (int, error) {
	return s.call(ctx, "File.NewBlank")
}

func (s *session) SetPresentUnits(ctx context.Context, units int) (int, error) {
	return s.call(ctx, "SetPresentUnits", units)
}

func (s *session) SetProjectInfo(ctx context.Context, item, data string) (int, error) {
	return s.call(ctx, "SetProjectInfo", item, data)
}

// DeleteAllMaterials lists the defined materials and deletes each one.
func (s *session) DeleteAllMaterials(ctx context.Context) (int, error) {
	r, err := s.t.invoke(ctx, s.handle, "PropMaterial.GetNameList", 0, []any{})
	if err != nil || r.status != 0 {
		return r.status, err
	}
	var names []string
	if len(r.values) > 1 {
		for _, v := range r.values[1].GetListValue().GetValues() {
			names = append(names, v.GetStringValue())
		}
	}
	for _, name := range names {
		ret, err := s.call(ctx, "PropMaterial.Delete", name)
		if err != nil || ret != 0 {
			return ret, err
		}
	}
	return 0, nil
}

func (s *session) RefreshView(ctx context.Context, window int, zoom bool) (int, error) {
	return s.call(ctx, "View.RefreshView", window, zoom)
}

func (s *session) Save(ctx context.Context, path string) (int, error) {
	return s.call(ctx, "File.Save", path)
}

func (s *session) SetGroup(ctx context.Context, name string) (int, error) {
	return s.call(ctx, "GroupDef.SetGroup", name)
}

func (s *session) ProgramInfo(ctx context.Context) (transport.ProgramInfo, int, error) {
	r, err := s.t.invoke(ctx, s.handle, "GetProgramInfo", "", "", "")
	if err != nil {
		return transport.ProgramInfo{}, 0, err
	}
	return transport.ProgramInfo{Name: r.str(0), Version: r.str(1), Level: r.str(2)}, r.status, nil
}
