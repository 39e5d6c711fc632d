package native

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"unsafe"
)

/*
#cgo LDFLAGS: -ldl
#include <stdlib.h>
#include <dlfcn.h>
*/
import "C"

var (
	// ErrLibNotFound means the shared library could not be opened.
	ErrLibNotFound = errors.New("library not found")
	// ErrSymbolMissing means a required entry point is not exported
	// by the library.
	ErrSymbolMissing = errors.New("required symbol missing")
)

// LoadError is a fatal construction failure of a core: either the
// library itself or one of its required entry points is missing.
type LoadError struct {
	Path   string
	Symbol string
	Detail string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("core %v: %v: %v", e.Path, e.Err, e.Symbol)
	}
	if e.Detail != "" {
		return fmt.Sprintf("core %v: %v (%v)", e.Path, e.Err, e.Detail)
	}
	return fmt.Sprintf("core %v: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadLib(filepath string) (unsafe.Pointer, error) {
	handle := open(filepath)
	if handle == nil {
		detail := ""
		if e := C.dlerror(); e != nil {
			detail = C.GoString(e)
		}
		return nil, &LoadError{Path: filepath, Detail: detail, Err: ErrLibNotFound}
	}
	return handle, nil
}

// loadLibRolling scans the lib directory for any file prefixed with
// the requested name and opens the first one that loads. Useful when
// the exact file carries an ABI version suffix.
func loadLibRolling(filepath string) (unsafe.Pointer, error) {
	dir, lib := path.Dir(filepath), path.Base(filepath)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Path: filepath, Err: ErrLibNotFound}
	}

	for _, file := range files {
		if !file.IsDir() && strings.HasPrefix(file.Name(), lib) {
			if handle := open(path.Join(dir, file.Name())); handle != nil {
				return handle, nil
			}
		}
	}
	return nil, &LoadError{Path: filepath, Err: ErrLibNotFound}
}

func open(file string) unsafe.Pointer {
	cs := C.CString(file)
	defer C.free(unsafe.Pointer(cs))
	return C.dlopen(cs, C.RTLD_LAZY)
}

func loadFunction(handle unsafe.Pointer, libpath, name string) (unsafe.Pointer, error) {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	ptr := C.dlsym(handle, cs)
	if ptr == nil {
		return nil, &LoadError{Path: libpath, Symbol: name, Err: ErrSymbolMissing}
	}
	return ptr, nil
}

func closeLib(handle unsafe.Pointer) error {
	if handle == nil {
		return nil
	}
	if code := int(C.dlclose(handle)); code != 0 {
		return errors.New("couldn't close the lib (" + strconv.Itoa(code) + ")")
	}
	return nil
}
