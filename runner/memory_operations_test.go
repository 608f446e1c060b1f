package runner

import (
	"errors"
	"testing"

	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/utils"
)

func TestMemoryRoundTrip(t *testing.T) {
	occa := utils.CreateTestDevice()
	defer occa.Free()
	kr := NewRunner(occa)
	defer kr.Free()

	for _, dt := range catalog.Base {
		t.Run(dt.String(), func(t *testing.T) {
			host := []catalog.Value{
				catalog.MinValue(dt),
				catalog.Int(dt, -3),
				catalog.Int(dt, 0),
				catalog.Int(dt, 7),
				catalog.MaxValue(dt),
			}
			buf, err := kr.Malloc(dt, len(host))
			if err != nil {
				t.Fatal(err)
			}
			defer buf.Free()

			// fresh allocations are zeroed
			got, err := buf.Read()
			if err != nil {
				t.Fatal(err)
			}
			for i, v := range got {
				if !v.IsZero() {
					t.Errorf("Position %d not zeroed: %s", i, v)
				}
			}

			if err = buf.Write(host); err != nil {
				t.Fatal(err)
			}
			got, err = buf.Read()
			if err != nil {
				t.Fatal(err)
			}
			for i := range host {
				if !host[i].Identical(got[i]) {
					t.Errorf("Position %d: expected %s, got %s", i, host[i], got[i])
				}
			}
		})
	}
}

func TestMemoryLifecycle(t *testing.T) {
	occa := utils.CreateTestDevice()
	defer occa.Free()
	kr := NewRunner(occa)
	defer kr.Free()

	buf, err := kr.Malloc(catalog.Int32, 4)
	if err != nil {
		t.Fatal(err)
	}
	if kr.Live() != 1 {
		t.Errorf("Expected 1 live buffer, got %d", kr.Live())
	}
	if err = buf.Write([]catalog.Value{catalog.Float(catalog.Float32, 1)}); err == nil {
		t.Error("Expected type mismatch error")
	}
	if err = buf.Write(make([]catalog.Value, 5)); err == nil {
		t.Error("Expected overflow error")
	}
	buf.Free()
	buf.Free()
	if kr.Live() != 0 {
		t.Errorf("Expected 0 live buffers, got %d", kr.Live())
	}
	if _, err = buf.Read(); !errors.Is(err, device.ErrLaunch) {
		t.Errorf("Expected ErrLaunch reading a freed buffer, got %v", err)
	}
	if _, err = kr.Malloc(catalog.Int32, 0); !errors.Is(err, device.ErrLaunch) {
		t.Errorf("Expected ErrLaunch for empty allocation, got %v", err)
	}
}
