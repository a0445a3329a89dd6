package sample

import "testing"

func TestEncodeDecodePoints_RoundTrip(t *testing.T) {
	orig := []Point{
		{Lon: -79.76, Lat: 43.65, Raw: 500, Score: 1.0},
		{Lon: -79.70, Lat: 43.70, Raw: 100, Score: 0.2},
	}

	b, err := EncodePoints(orig)
	if err != nil {
		t.Fatalf("EncodePoints failed: %v", err)
	}
	decoded, err := DecodePoints(b)
	if err != nil {
		t.Fatalf("DecodePoints failed: %v", err)
	}
	if len(decoded) != len(orig) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(orig))
	}
	for i := range orig {
		if decoded[i] != orig[i] {
			t.Fatalf("decoded[%d] = %+v, want %+v", i, decoded[i], orig[i])
		}
	}
}

func TestEncodeDecodePoints_Empty(t *testing.T) {
	b, err := EncodePoints(nil)
	if err != nil {
		t.Fatalf("EncodePoints(nil) failed: %v", err)
	}
	decoded, err := DecodePoints(b)
	if err != nil {
		t.Fatalf("DecodePoints failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("decoded length = %d, want 0", len(decoded))
	}
}

func TestDecodePoints_Corrupt(t *testing.T) {
	if _, err := DecodePoints([]byte("bogus")); err == nil {
		t.Fatalf("DecodePoints on short blob: expected error")
	}
	if _, err := DecodePoints([]byte("XXXX\x01\x00\x00\x00")); err == nil {
		t.Fatalf("DecodePoints on wrong magic: expected error")
	}
	good, err := EncodePoints([]Point{{Lon: 1, Lat: 2, Raw: 3, Score: 0.5}})
	if err != nil {
		t.Fatalf("EncodePoints failed: %v", err)
	}
	if _, err := DecodePoints(good[:len(good)-4]); err == nil {
		t.Fatalf("DecodePoints on truncated blob: expected error")
	}
}
