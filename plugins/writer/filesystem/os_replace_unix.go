//go:build unix

package filesystem

import (
	"os"

	"golang.org/x/sys/unix"
)

// osReplace 同目录 rename(2)。
func osReplace(tmpPath, dest string) error {
	return os.Rename(tmpPath, dest)
}

// syncDir 持久化目录项；失败由调用方忽略。
func syncDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.Fsync(fd)
}
