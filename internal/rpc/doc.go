// Package rpc defines the file service spoken between nodes and clients: a
// gRPC service descriptor, its client stub, and the message types.
//
// Messages that already exist as protobuf well-known types (filename
// arguments, empty requests) travel in the protobuf wire format; the
// remaining messages are plain Go structs encoded as JSON by the "dfs"
// codec, which every call selects through its content-subtype.
package rpc
