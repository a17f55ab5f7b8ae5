// Package flashmask implements masked flash attention with per-row start/end
// key windows: the forward kernel and the gradient (backward) kernel.
package flashmask

import (
	"github.com/tensorfuse/tensorfuse/internal/op"
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// RowMask is the decoded row-window descriptor: for every query row (and
// optionally per head) the valid key-index window [start, end).
//
// The caller produces it once per forward pass; forward and backward decode
// the same tensor through this type so both interpret it identically.
type RowMask struct {
	rows  []int32 // Flattened [batch, maskHeads, seqLen, 2]
	heads int     // 1 (broadcast over heads) or numHeads
	seq   int
}

// NewRowMask validates and decodes a row-mask tensor of shape
// [batch, maskHeads, seqLen, 2] with maskHeads in {1, numHeads}.
// Every window must satisfy 0 <= start < end <= kvLen.
func NewRowMask(t *tensor.RawTensor, opName string, batch, numHeads, seqLen, kvLen int) (*RowMask, error) {
	const operand = "startend_row_indices"

	if t.DType() != tensor.Int32 {
		return nil, op.Errorf(opName, operand, op.ErrInvalidMask,
			"dtype is %s, want int32", t.DType())
	}
	shape := t.Shape()
	if len(shape) != 4 || shape[3] != 2 {
		return nil, op.Errorf(opName, operand, op.ErrInvalidMask,
			"shape is %v, want [batch, heads, seq, 2]", shape)
	}
	if shape[0] != batch || shape[2] != seqLen {
		return nil, op.Errorf(opName, operand, op.ErrInvalidMask,
			"shape %v does not cover batch=%d seq=%d", shape, batch, seqLen)
	}
	maskHeads := shape[1]
	if maskHeads != 1 && maskHeads != numHeads {
		return nil, op.Errorf(opName, operand, op.ErrInvalidMask,
			"mask heads %d must be 1 or %d", maskHeads, numHeads)
	}

	rows := t.AsInt32()
	for i := 0; i+1 < len(rows); i += 2 {
		start, end := rows[i], rows[i+1]
		if start < 0 || int(end) > kvLen || end <= start {
			return nil, op.Errorf(opName, operand, op.ErrInvalidMask,
				"row %d has window [%d, %d) outside [0, %d)", i/2, start, end, kvLen)
		}
	}

	return &RowMask{rows: rows, heads: maskHeads, seq: seqLen}, nil
}

// Window returns the valid key window [start, end) for query row qi of
// batch b, head h, broadcasting over heads when the mask carries one plane.
func (m *RowMask) Window(b, h, qi int) (start, end int) {
	if m.heads == 1 {
		h = 0
	}
	idx := ((b*m.heads+h)*m.seq + qi) * 2
	return int(m.rows[idx]), int(m.rows[idx+1])
}

// maskShapeOK reports whether a shape is structurally a row-mask shape.
// Used by shape inference, which sees shapes only.
func maskShapeOK(s tensor.Shape, batch, numHeads, seqLen int) bool {
	return len(s) == 4 && s[0] == batch && (s[1] == 1 || s[1] == numHeads) &&
		s[2] == seqLen && s[3] == 2
}
