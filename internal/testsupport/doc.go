// Package testsupport holds fixtures shared by package tests: temp-rooted
// configs, patterned video files, and an opened history store.
package testsupport
