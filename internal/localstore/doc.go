// Package localstore is small string key-value storage for client-side state.
//
// Two keys live here in separate namespaces: the anonymous quota counter and
// the anonymous message mirror. FileStorage keeps them in one JSON file
// rewritten atomically on every Set; MemStorage backs tests and can inject
// write failures.
package localstore
