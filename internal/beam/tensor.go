package beam

// Tensor is a dense 6x6x6 second-order transport tensor, symmetric in
// its last two indices. Entries are stored once in the canonical j<=k
// slot; At enforces the symmetric read T[i,j,k] == T[i,k,j], so an
// asymmetric write is not representable.
type Tensor struct {
	data [Dim * Dim * Dim]float64
}

// NewTensor returns a zero tensor.
func NewTensor() *Tensor {
	return &Tensor{}
}

func slot(i, j, k int) int {
	if j > k {
		j, k = k, j
	}
	return (i*Dim+j)*Dim + k
}

// At returns T[i,j,k], reading the canonical slot for either index order.
func (t *Tensor) At(i, j, k int) float64 {
	return t.data[slot(i, j, k)]
}

// Set assigns T[i,j,k] and, by symmetry, T[i,k,j].
func (t *Tensor) Set(i, j, k int, v float64) {
	t.data[slot(i, j, k)] = v
}

// Add accumulates into T[i,j,k].
func (t *Tensor) Add(i, j, k int, v float64) {
	t.data[slot(i, j, k)] += v
}

// IsZero reports whether every entry vanishes.
func (t *Tensor) IsZero() bool {
	for _, v := range t.data {
		if v != 0 {
			return false
		}
	}
	return true
}

// Apply adds the second-order contribution sum_{j<=k} T[i,j,k]*u_j*u_k
// to dst for each output coordinate i. Cross terms are stored with their
// full coefficient, so each unordered pair contributes exactly once.
func (t *Tensor) Apply(dst *State, u State) {
	for i := 0; i < Dim; i++ {
		acc := 0.0
		for j := 0; j < Dim; j++ {
			base := (i*Dim + j) * Dim
			for k := j; k < Dim; k++ {
				if c := t.data[base+k]; c != 0 {
					acc += c * u[j] * u[k]
				}
			}
		}
		dst[i] += acc
	}
}

// Nonzero returns the index triples (canonical j<=k) of nonzero entries.
// The pattern is fixed by the physics of the generating element.
func (t *Tensor) Nonzero() [][3]int {
	var out [][3]int
	for i := 0; i < Dim; i++ {
		for j := 0; j < Dim; j++ {
			for k := j; k < Dim; k++ {
				if t.data[(i*Dim+j)*Dim+k] != 0 {
					out = append(out, [3]int{i, j, k})
				}
			}
		}
	}
	return out
}
