package game

import "testing"

func TestNormalizedAppliesDefaults(t *testing.T) {
	var zero Tuning
	got := zero.Normalized()
	if got != DefaultTuning() {
		t.Fatalf("zero tuning should normalize to defaults, got %+v", got)
	}
}

func TestNormalizedKeepsValidOverrides(t *testing.T) {
	custom := DefaultTuning()
	custom.MoveSpeed = 0.05
	custom.TrailLengthFrames = 120

	got := custom.Normalized()
	if got.MoveSpeed != 0.05 {
		t.Fatalf("valid move speed was overwritten: %v", got.MoveSpeed)
	}
	if got.TrailLengthFrames != 120 {
		t.Fatalf("valid trail length was overwritten: %v", got.TrailLengthFrames)
	}
}

func TestChecksumStableAndSensitive(t *testing.T) {
	a := DefaultTuning()
	b := DefaultTuning()

	if a.Checksum() == "" {
		t.Fatalf("checksum should not be empty")
	}
	if a.Checksum() != b.Checksum() {
		t.Fatalf("identical tunings should share a checksum")
	}

	b.TurnRate = 0.14
	if a.Checksum() == b.Checksum() {
		t.Fatalf("changing a field should change the checksum")
	}
}
