// Package git implements a content-addressed object store and
// repository abstraction compatible with the on-disk layout of Git:
// repository discovery, a pluggable object database, a typed
// in-memory object cache, and the write-back pipeline that ties them
// together.
package git
