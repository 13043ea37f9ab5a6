// Package cgobootstrap links libdl into cgo builds. It is empty when cgo is
// disabled.
package cgobootstrap
