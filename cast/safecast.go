// Package cast provides zero-copy reinterpretation between same-width
// numeric types via unsafe.Pointer. Only safe for types of identical size;
// truncating conversions (e.g. 64-bit down to 32-bit) are never safe this
// way across platform endianness and are deliberately not provided here -
// use a plain Go conversion (uint32(x)) for those instead.
package cast

import "unsafe"

// As reinterprets from's bit pattern as T without copying or converting.
// Callers must only instantiate it for same-size F/T pairs.
func As[T any, F any](from F) T {
	return *(*T)(unsafe.Pointer(&from))
}

// Int64ToUint64 reinterprets a signed 64-bit value as unsigned, used to
// seed PRNG state from time.Now().UnixNano().
func Int64ToUint64(i int64) uint64 { return As[uint64](i) }
