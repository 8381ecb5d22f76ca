// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build wsi_glfw

package wsi

import (
	"os"
	"runtime"
)

func init() {
	runtime.LockOSThread()
	if err := initGLFW(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		initDummy()
	}
}
