// Package transcoder marshals host bytes and strings into guest linear memory
// and decodes guest strings back.
//
// Every marshalling call returns an explicit Arg (pointer and length). No
// length is left behind in shared state, so a caller may hold any number of
// Args at once.
//
// # Bytes
//
// PassBytes asks the guest allocator for len(b) bytes and copies b verbatim.
//
// # Strings
//
// PassString first allocates one byte per UTF-16 code unit and copies while
// the input is ASCII. On the first non-ASCII byte it reallocates the written
// prefix to hold the worst case of three bytes per remaining code unit,
// encodes the rest with a UTF-8 transformer and shrinks the allocation to the
// exact length. An encoder that does not consume the whole input is reported
// as KindEncodeInvariant and never retried.
//
// # Decoding
//
// DecodeString and DecodeMessage are strict: malformed UTF-8 is an error,
// never repaired. DecodeString caps the length at MaxArgSize; DecodeMessage
// reads guest-authored text and is bounded only by guest memory.
//
// # Memory
//
// The codec never caches a window over guest memory across guest calls. It
// re-reads through Memory after every allocation, since an allocation may
// grow memory and detach earlier windows.
package transcoder
