package builder

import (
	"fmt"
	"strings"
)

// GenerateKernelSignature generates the parameter list of the kernel
func (kb *Builder) GenerateKernelSignature() string {
	var params []string
	for _, p := range kb.Params() {
		params = append(params, p.Declaration())
	}
	return strings.Join(params, ",\n\t")
}

// GenerateKernelDeclaration generates a complete kernel function declaration
func (kb *Builder) GenerateKernelDeclaration(kernelName string) string {
	return fmt.Sprintf("@kernel void %s(\n\t%s\n)", kernelName, kb.GenerateKernelSignature())
}

// GenerateKernel returns the preamble followed by the kernel. Every
// work-item of a scope loads one element into local memory, the scope is
// scanned with log2(scope size) Hillis-Steele rounds, and the result is
// written back. Joint scans repeat this over chunks of the range and carry
// the running total between chunks.
func (kb *Builder) GenerateKernel(kernelName string) (string, error) {
	preamble, err := kb.GeneratePreamble()
	if err != nil {
		return "", err
	}
	e := &emitter{}
	e.open("%s", kb.GenerateKernelDeclaration(kernelName))
	for d := range kb.Local {
		e.open("for (int g%d = 0; g%d < G%d; ++g%d; @outer)", d, d, d, d)
	}
	e.line("@shared acc_t bankA[GROUP_SIZE];")
	e.line("@shared acc_t bankB[GROUP_SIZE];")
	if kb.Variant.IsJoint() {
		e.line("@shared acc_t carry[NUM_SCOPES];")
		kb.jointBody(e)
	} else {
		kb.valueBody(e)
	}
	for range kb.Local {
		e.close()
	}
	e.close()
	return preamble + e.String(), nil
}

func (kb *Builder) valueBody(e *emitter) {
	gl := kb.globalLinear()
	kb.inner(e, func() {
		e.line("bankA[lid] = (acc_t)(in[%s]);", gl)
	})
	kb.scanRounds(e)
	kb.inner(e, func() {
		e.line("acc_t r;")
		if kb.Variant.IsExclusive() {
			e.line("if (SCOPE_IDX(lid) == 0) r = %s;", kb.start())
			e.line("else r = %s;", kb.withInit("bankA[lid - 1]"))
		} else {
			e.line("r = %s;", kb.withInit("bankA[lid]"))
		}
		e.line("out[%s] = (out_t)r;", gl)
	})
}

func (kb *Builder) jointBody(e *emitter) {
	hasCarry := "(chunk > 0)"
	if kb.Init != nil {
		hasCarry = "1"
		kb.inner(e, func() {
			e.line("if (SCOPE_IDX(lid) == 0) carry[SCOPE_ID(lid)] = INIT;")
		})
	}
	withCarry := func(v string) string {
		return fmt.Sprintf("(%s ? OP(carry[SCOPE_ID(lid)], %s) : %s)", hasCarry, v, v)
	}
	e.open("for (int chunk = 0; chunk < NUM_CHUNKS; ++chunk)")
	kb.inner(e, func() {
		e.line("const int k = chunk * SCOPE_LEN(lid) + SCOPE_IDX(lid);")
		// members past the end pad with a real element; trailing pads never reach a stored prefix
		e.line("bankA[lid] = (acc_t)(in[k < RANGE_LEN ? k : 0]);")
	})
	kb.scanRounds(e)
	kb.inner(e, func() {
		e.line("const int k = chunk * SCOPE_LEN(lid) + SCOPE_IDX(lid);")
		e.open("if (k < RANGE_LEN)")
		e.line("acc_t r;")
		if kb.Variant.IsExclusive() {
			start := "((chunk > 0) ? carry[SCOPE_ID(lid)] : IDENTITY)"
			if kb.Init != nil {
				start = "carry[SCOPE_ID(lid)]"
			}
			e.line("if (SCOPE_IDX(lid) == 0) r = %s;", start)
			e.line("else r = %s;", withCarry("bankA[lid - 1]"))
		} else {
			e.line("r = %s;", withCarry("bankA[lid]"))
		}
		e.line("out[REGION(%s, lid) * RANGE_LEN + k] = (out_t)r;", kb.groupLinear())
		e.close()
	})
	kb.inner(e, func() {
		e.open("if (SCOPE_IDX(lid) == 0 && chunk * SCOPE_LEN(lid) < RANGE_LEN)")
		e.line("const acc_t total = bankA[lid + SCOPE_LEN(lid) - 1];")
		e.line("carry[SCOPE_ID(lid)] = %s;", withCarry("total"))
		e.close()
	})
	e.close()
}

// scanRounds emits the inclusive Hillis-Steele scan of bankA. Consecutive
// @inner loops are separated by a barrier.
func (kb *Builder) scanRounds(e *emitter) {
	e.open("for (int off = 1; off < SCOPE_MAX; off <<= 1)")
	kb.inner(e, func() {
		e.line("acc_t v = bankA[lid];")
		e.line("if (SCOPE_IDX(lid) >= off) v = OP(bankA[lid - off], v);")
		e.line("bankB[lid] = v;")
	})
	kb.inner(e, func() {
		e.line("bankA[lid] = bankB[lid];")
	})
	e.close()
}

// inner wraps body in the nested @inner loops of one work-group
func (kb *Builder) inner(e *emitter, body func()) {
	for d := range kb.Local {
		e.open("for (int l%d = 0; l%d < L%d; ++l%d; @inner)", d, d, d, d)
	}
	e.line("const int lid = %s;", linear(len(kb.Local), "l%d", "L%d"))
	body()
	for range kb.Local {
		e.close()
	}
}

func (kb *Builder) start() string {
	if kb.Init != nil {
		return "INIT"
	}
	return "IDENTITY"
}

func (kb *Builder) withInit(v string) string {
	if kb.Init != nil {
		return fmt.Sprintf("OP(INIT, %s)", v)
	}
	return v
}

func (kb *Builder) groupLinear() string {
	return linear(len(kb.Local), "g%d", "G%d")
}

func (kb *Builder) globalLinear() string {
	return linear(len(kb.Local), "(g%[1]d * L%[1]d + l%[1]d)", "GLOBAL%d")
}

// linear builds the row-major linear id expression over dims dimensions
func linear(dims int, id, extent string) string {
	expr := fmt.Sprintf(id, 0)
	for d := 1; d < dims; d++ {
		expr = fmt.Sprintf("(%s) * %s + %s", expr, fmt.Sprintf(extent, d), fmt.Sprintf(id, d))
	}
	return expr
}

type emitter struct {
	sb    strings.Builder
	depth int
}

func (e *emitter) line(format string, args ...interface{}) {
	e.sb.WriteString(strings.Repeat("\t", e.depth))
	e.sb.WriteString(fmt.Sprintf(format, args...))
	e.sb.WriteString("\n")
}

func (e *emitter) open(format string, args ...interface{}) {
	e.line(format+" {", args...)
	e.depth++
}

func (e *emitter) close() {
	e.depth--
	e.line("}")
}

func (e *emitter) String() string { return e.sb.String() }
