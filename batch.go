package rocblas

// batch addresses one operand across batch instances. The strided form
// walks a single base view at a fixed element stride; the pointer form
// indexes a per-instance pointer table. Kernels resolve an instance and
// then index it with the launcher-computed shift, which keeps negative
// increments inside the instance bounds.
type batch[T Scalar] struct {
	base   []T
	stride int
	ptrs   []DevicePtr
	table  bool
}

func stridedBatch[T Scalar](d DevicePtr, stride int) batch[T] {
	return batch[T]{base: deviceView[T](d), stride: stride}
}

func pointerBatch[T Scalar](ptrs []DevicePtr) batch[T] {
	return batch[T]{ptrs: ptrs, table: true}
}

// instance returns batch instance b as a slice starting at its base
// element.
func (bt batch[T]) instance(b int) []T {
	if bt.table {
		return deviceView[T](bt.ptrs[b])
	}
	return bt.base[b*bt.stride:]
}

// condInstance resolves instance b only when load is set. The scalar fast
// paths pass load=false for operands the kernel will not read, so those
// pointers may legally be nil.
func (bt batch[T]) condInstance(load bool, b int) []T {
	if !load {
		return nil
	}
	return bt.instance(b)
}

// isNull reports whether the operand carries no memory at all. For the
// pointer form this checks the table, matching the argument checks, which
// reject a nil table but leave per-instance entries to the kernels.
func (bt batch[T]) isNull() bool {
	if bt.table {
		return bt.ptrs == nil
	}
	return bt.base == nil
}
