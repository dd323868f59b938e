// Package hashkey implements the djb2 string hash used to turn a request
// URI into the on-disk cache filename.
package hashkey

// DJB2 computes h_0 = 5381; h_{i+1} = h_i*33 + b_i over uri's bytes.
func DJB2(uri string) uint64 {
	var h uint64 = 5381
	for i := 0; i < len(uri); i++ {
		h = h*33 + uint64(uri[i])
	}
	return h
}
