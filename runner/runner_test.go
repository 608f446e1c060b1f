package runner

import (
	"testing"

	"github.com/notargets/GroupScan/device"
	"github.com/notargets/GroupScan/utils"
)

func TestNewRunner(t *testing.T) {
	t.Run("NilDevice", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic for nil Device")
			}
		}()
		NewRunner(nil)
	})

	t.Run("Capabilities", func(t *testing.T) {
		occa := utils.CreateTestDevice()
		defer occa.Free()
		kr := NewRunner(occa)
		defer kr.Free()

		dev := kr.Device()
		if dev.Backend() != Backend {
			t.Errorf("Expected backend %s, got %s", Backend, dev.Backend())
		}
		if !dev.Has(device.AspectFP64) {
			t.Error("Expected fp64 support")
		}
		if dev.Has(device.AspectFP16) {
			t.Error("Expected no fp16 support")
		}
		if dev.Name() != "OCCA "+occa.Mode() {
			t.Errorf("Unexpected device name %s", dev.Name())
		}
	})
}

func TestDescribe(t *testing.T) {
	occa := utils.CreateTestDevice()
	defer occa.Free()
	kr := NewRunner(occa)
	defer kr.Free()

	r, err := device.NewNDRange([]int{8, 8}, []int{4, 4})
	if err != nil {
		t.Fatal(err)
	}
	desc, err := kr.Describe(r)
	if err != nil {
		t.Fatal(err)
	}
	if want := min(kr.dev.SubGroupSize(), 16); desc.SubGroupSize != want {
		t.Errorf("Expected sub-group size %d, got %d", want, desc.SubGroupSize)
	}
	if err = desc.Validate(); err != nil {
		t.Error(err)
	}

	big, err := device.NewNDRange([]int{2048}, []int{2048})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = kr.Describe(big); err == nil {
		t.Error("Expected error for oversized group")
	}
}

func TestBuildKernelCache(t *testing.T) {
	occa := utils.CreateTestDevice()
	defer occa.Free()
	kr := NewRunner(occa)
	defer kr.Free()

	src := `
@kernel void fill(int *out) {
	for (int g = 0; g < 1; ++g; @outer) {
		for (int i = 0; i < 4; ++i; @inner) {
			out[i] = i;
		}
	}
}`
	k1, err := kr.BuildKernel(src, "fill")
	if err != nil {
		t.Fatalf("BuildKernel failed: %v", err)
	}
	k2, err := kr.BuildKernel(src, "fill")
	if err != nil {
		t.Fatalf("BuildKernel failed: %v", err)
	}
	if k1 != k2 {
		t.Error("Expected identical source to reuse the compiled kernel")
	}
	if len(kr.Kernels) != 1 {
		t.Errorf("Expected 1 cached kernel, got %d", len(kr.Kernels))
	}
}
