// Package fileurl 文件路径工具
package fileurl

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// IsExist reports whether dst exists. Permission errors count as existing.
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// CreatePath creates the parent directory of the file dst
// CreatePath 创建文件 dst 所在目录
func CreatePath(dst string, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, perm)
}

// WriteIfAbsent writes data to dst unless dst already exists, creating parent directories.
// It reports whether the file was written.
func WriteIfAbsent(dst string, data []byte, perm os.FileMode) (bool, error) {
	if IsExist(dst) {
		return false, nil
	}
	if err := CreatePath(dst, 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, err
	}
	return true, f.Close()
}
