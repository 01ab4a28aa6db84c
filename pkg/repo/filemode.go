package repo

import (
	"io/fs"

	"github.com/odvcencio/grit/pkg/object"
)

// modeFromFileInfo maps lstat information to a tree mode. ok is false for
// file types that cannot be stored (sockets, devices, pipes).
func modeFromFileInfo(info fs.FileInfo) (mode string, ok bool) {
	switch {
	case info.IsDir():
		return object.TreeModeDir, true
	case info.Mode()&fs.ModeSymlink != 0:
		return object.TreeModeSymlink, true
	case info.Mode().IsRegular():
		if info.Mode()&0o111 != 0 {
			return object.TreeModeExecutable, true
		}
		return object.TreeModeFile, true
	default:
		return "", false
	}
}
