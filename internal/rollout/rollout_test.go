package rollout

import "testing"

func TestShouldServeFullAndZero(t *testing.T) {
	s := New()
	if !s.ShouldServe(100, "") {
		t.Fatal("100% rollout must always serve")
	}
	if s.ShouldServe(0, "") {
		t.Fatal("0% rollout must never serve")
	}
}

func TestShouldServeDeterministicPerDevice(t *testing.T) {
	s := New()
	first := s.ShouldServe(50, "device-a")
	for i := 0; i < 10; i++ {
		if s.ShouldServe(50, "device-a") != first {
			t.Fatal("same device must get a stable rollout decision")
		}
	}
}

func TestBucketRange(t *testing.T) {
	b := Bucket("some-device-id")
	if b < 0 || b > 99 {
		t.Fatalf("bucket %d out of range", b)
	}
}
