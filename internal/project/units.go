// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package project

import (
	"fmt"
	"strings"
)

// Units is the OAPI eUnits enumeration.
type Units int

const (
	LbInF  Units = 1
	LbFtF  Units = 2
	KipInF Units = 3
	KipFtF Units = 4
	KNmmC  Units = 5
	KNmC   Units = 6
	KgfMmC Units = 7
	KgfMC  Units = 8
	NmmC   Units = 9
	NmC    Units = 10
	TonMmC Units = 11
	TonMC  Units = 12
	KNcmC  Units = 13
	KgfCmC Units = 14
	NcmC   Units = 15
	TonCmC Units = 16
)

// Default is the preset applied by SetupProject when none is configured.
const Default = KNmC

var unitNames = map[Units]string{
	LbInF:  "lb_in_F",
	LbFtF:  "lb_ft_F",
	KipInF: "kip_in_F",
	KipFtF: "kip_ft_F",
	KNmmC:  "kN_mm_C",
	KNmC:   "kN_m_C",
	KgfMmC: "kgf_mm_C",
	KgfMC:  "kgf_m_C",
	NmmC:   "N_mm_C",
	NmC:    "N_m_C",
	TonMmC: "Ton_mm_C",
	TonMC:  "Ton_m_C",
	KNcmC:  "kN_cm_C",
	KgfCmC: "kgf_cm_C",
	NcmC:   "N_cm_C",
	TonCmC: "Ton_cm_C",
}

func (u Units) String() string {
	if s, ok := unitNames[u]; ok {
		return s
	}
	return fmt.Sprintf("Units(%d)", int(u))
}

// ParseUnits resolves a unit preset name such as "kN_m_C" (case-insensitive).
// An empty name yields Default.
func ParseUnits(s string) (Units, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	for u, name := range unitNames {
		if strings.EqualFold(name, s) {
			return u, nil
		}
	}
	return 0, fmt.Errorf("unknown units preset %q", s)
}
