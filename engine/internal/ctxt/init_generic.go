// Copyright 2023 Gustavo C. Viegas. All rights reserved.

//go:build linux || windows

package ctxt

import (
	_ "github.com/divide-framework/divide/driver/soft"
	_ "github.com/divide-framework/divide/driver/wgpu"
)

func init() {
	if err := loadDriver("wgpu"); err != nil {
		// Try all drivers (soft is always registered, so this
		// never fails as long as init order ran soft's init).
		if err = loadDriver(""); err != nil {
			panic(err)
		}
	}
}
