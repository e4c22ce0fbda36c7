package gateway

import "testing"

func TestGuardDisabledAllowsEverything(t *testing.T) {
	g := NewGuard(false, ":free")

	if !g.Eligible("openai/gpt-4o") {
		t.Error("disabled guard must allow paid models")
	}
	if !g.Eligible("google/gemini-2.0-flash-exp:free") {
		t.Error("disabled guard must allow free models")
	}
}

func TestGuardFreeOnly(t *testing.T) {
	g := NewGuard(true, ":free")

	if g.Eligible("openai/gpt-4o") {
		t.Error("free-only guard must reject models without the marker")
	}
	if !g.Eligible("google/gemini-2.0-flash-exp:free") {
		t.Error("free-only guard must allow marked models")
	}
}

func TestGuardCustomMarker(t *testing.T) {
	g := NewGuard(true, "-trial")

	if !g.Eligible("vendor/model-trial") {
		t.Error("custom marker must be honored")
	}
	if g.Eligible("vendor/model:free") {
		t.Error("default marker must not apply when a custom one is set")
	}
}

func TestGuardEmptyMarkerDefaults(t *testing.T) {
	g := NewGuard(true, "")
	if !g.Eligible("x:free") {
		t.Error("empty marker should default to :free")
	}
}
