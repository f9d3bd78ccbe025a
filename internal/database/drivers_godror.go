//go:build cgo

package database

import (
	_ "github.com/godror/godror" // registers "godror"; godror requires cgo
)
