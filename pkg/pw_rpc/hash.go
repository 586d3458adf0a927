package pw_rpc

const k65599HashConstant = uint32(65599)

// Hash computes the 65599 string hash Pigweed uses to identify services
// and methods on the wire.
func Hash(s string) uint32 {
	hash := uint32(len(s))
	coefficient := k65599HashConstant

	for _, ch := range s {
		hash += coefficient * uint32(ch)
		coefficient *= k65599HashConstant
	}

	return hash
}
