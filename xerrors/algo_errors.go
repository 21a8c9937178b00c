package xerrors

var (
	// ErrInvalidProbabilities 概率超出 (0,1) 范围。
	ErrInvalidProbabilities = New(ErrInvalidArg, 400010, "false positive rate must be in (0, 1)", "check the configured Bloom false-positive rate", nil)
	// ErrCapacityTooSmall 容量太小。
	ErrCapacityTooSmall = New(ErrInvalidArg, 400012, "expected elements must be at least 1", "minimum capacity requirement not met", nil)
	// ErrCapacityRequired 需要指定容量。
	ErrCapacityRequired = New(ErrInvalidArg, 400017, "capacity required", "initial capacity must be provided", nil)
	// ErrInvalidFingerprintSize 指纹长度超出支持范围。
	ErrInvalidFingerprintSize = New(ErrInvalidArg, 400019, "invalid fingerprint size", "fingerprint size must be between 1 and 4 bytes", nil)
	// ErrNilItem 传入了空字节切片。
	ErrNilItem = New(ErrInvalidArg, 400020, "nil item", "byte slice input must not be nil", nil)
)
