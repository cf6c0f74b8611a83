// Package compress provides the payload codecs a region container can apply
// to serialized chunk data: gzip, zlib, none and LZ4, keyed by the
// compression ids the container records per chunk.
//
// Zlib is the default and by far the most common scheme in existing save
// data. Gzip appears in very old worlds, uncompressed payloads are used for
// debugging, and LZ4 is accepted for completeness.
package compress
