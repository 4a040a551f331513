// Command libtrussfs builds the C library:
//
//	go build -buildmode=c-shared -o libtrussfs.so ./cmd/libtrussfs
//
// Every resource, the context included, crosses the boundary as a uint64
// handle; UINT64_MAX is the invalid handle. Strings returned to C are owned
// by the library: list items live until their list is freed, the error
// string until the next failure or trussfs_clear_error, and the directory
// strings until trussfs_shutdown. Pointers and buffer sizes passed in are
// trusted; a malformed pointer is the caller's bug.
package main

func main() {}
