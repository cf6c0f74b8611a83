package format

// CompressionType identifies the scheme applied to chunk payloads inside a
// region container. Values match the on-disk compression ids.
type CompressionType uint8

const (
	CompressionGzip CompressionType = 0x1 // CompressionGzip represents RFC 1952 gzip.
	CompressionZlib CompressionType = 0x2 // CompressionZlib represents RFC 1950 zlib, the vanilla default.
	CompressionNone CompressionType = 0x3 // CompressionNone represents uncompressed payloads.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionGzip:
		return "Gzip"
	case CompressionZlib:
		return "Zlib"
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
