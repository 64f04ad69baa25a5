package matrix

// Assembler is the accumulation surface Jacobian builders stamp into.
type Assembler interface {
	Add(i, j int, value float64) // 1-based indexing
}
