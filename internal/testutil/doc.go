// Package testutil provides testing utilities and helpers for the workloadhub library.
package testutil
