// protocol_script.go - Lua-scripted protocol definitions

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// ProtocolScript wraps a Lua state whose script returned a phase table.
// Custom phase shapes call back into Lua, so the state must stay alive for
// the lifetime of the protocol run; Close releases it. Lua states are not
// goroutine-safe, hence the mutex around custom-shape evaluation (only the
// protocol tick goroutine calls it in practice).
type ProtocolScript struct {
	state  *lua.LState
	mutex  sync.Mutex
	Phases []ProtocolPhase
}

// LoadProtocolScript runs a Lua file that returns an array of phase
// tables, e.g.:
//
//	return {
//	  { name = "Descent", start_sec = 0, end_sec = 300,
//	    shape = "ramp", freq_start = 20, freq_end = 8 },
//	  { name = "Hold", start_sec = 300, end_sec = 600,
//	    shape = "custom", freq = function(t) return 8 + t/300 end },
//	}
func LoadProtocolScript(path string) (*ProtocolScript, error) {
	L := lua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("run protocol script: %w", err)
	}

	ret := L.Get(-1)
	table, ok := ret.(*lua.LTable)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("protocol script must return a table, got %s", ret.Type())
	}

	ps := &ProtocolScript{state: L}
	var convErr error
	table.ForEach(func(_, v lua.LValue) {
		if convErr != nil {
			return
		}
		entry, ok := v.(*lua.LTable)
		if !ok {
			convErr = fmt.Errorf("protocol entries must be tables, got %s", v.Type())
			return
		}
		ph, err := ps.phaseFromTable(entry)
		if err != nil {
			convErr = err
			return
		}
		ps.Phases = append(ps.Phases, ph)
	})
	if convErr == nil {
		convErr = ValidateProtocol(ps.Phases)
	}
	if convErr != nil {
		L.Close()
		return nil, convErr
	}
	return ps, nil
}

func (ps *ProtocolScript) phaseFromTable(t *lua.LTable) (ProtocolPhase, error) {
	num := func(key string) float64 {
		if v, ok := t.RawGetString(key).(lua.LNumber); ok {
			return float64(v)
		}
		return 0
	}

	ph := ProtocolPhase{
		Name:      lua.LVAsString(t.RawGetString("name")),
		StartSec:  num("start_sec"),
		EndSec:    num("end_sec"),
		Shape:     lua.LVAsString(t.RawGetString("shape")),
		FreqStart: num("freq_start"),
		FreqEnd:   num("freq_end"),
		Center:    num("center"),
		Amplitude: num("amplitude"),
		Period:    num("period"),
	}

	if ph.Shape == SHAPE_CUSTOM {
		fn, ok := t.RawGetString("freq").(*lua.LFunction)
		if !ok {
			return ph, fmt.Errorf("custom phase %q needs a freq function", ph.Name)
		}
		ph.Custom = func(elapsed float64) float64 {
			return ps.callFreq(fn, elapsed)
		}
	}
	return ph, nil
}

// callFreq evaluates a scripted frequency function. A script error yields
// 0, which the engine's downstream clamping turns into the range floor -
// a wrong frequency, never a crash mid-session.
func (ps *ProtocolScript) callFreq(fn *lua.LFunction, elapsed float64) float64 {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	if ps.state == nil {
		return 0
	}
	err := ps.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LNumber(elapsed))
	if err != nil {
		return 0
	}
	ret := ps.state.Get(-1)
	ps.state.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// Close releases the Lua state. Custom phases from this script must not be
// evaluated afterwards.
func (ps *ProtocolScript) Close() {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	if ps.state != nil {
		ps.state.Close()
		ps.state = nil
	}
}
