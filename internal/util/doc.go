// Package util holds small helpers shared by the storage packages.
package util
