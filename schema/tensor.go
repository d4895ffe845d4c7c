package schema

import "fmt"

// Tensor is a dense row-major float64 array of arbitrary rank.
type Tensor struct {
	Shape   []int
	Data    []float64
	strides []int
}

// NewTensor allocates a tensor of the given shape with every element set to fill.
func NewTensor(fill float64, shape ...int) *Tensor {
	t := &Tensor{Shape: append([]int(nil), shape...)}
	t.strides = make([]int, len(shape))
	size := 1
	for i := len(shape) - 1; i >= 0; i-- {
		t.strides[i] = size
		size *= shape[i]
	}
	t.Data = make([]float64, size)
	if fill != 0 {
		for i := range t.Data {
			t.Data[i] = fill
		}
	}
	return t
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.Shape) {
		panic(fmt.Sprintf("tensor: got %d indices for rank %d", len(idx), len(t.Shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.Shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range [0,%d) on axis %d", v, t.Shape[i], i))
		}
		off += v * t.strides[i]
	}
	return off
}

// At returns the element at idx.
func (t *Tensor) At(idx ...int) float64 {
	return t.Data[t.offset(idx)]
}

// Set stores v at idx.
func (t *Tensor) Set(v float64, idx ...int) {
	t.Data[t.offset(idx)] = v
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		Shape:   append([]int(nil), t.Shape...),
		Data:    append([]float64(nil), t.Data...),
		strides: append([]int(nil), t.strides...),
	}
	return c
}
