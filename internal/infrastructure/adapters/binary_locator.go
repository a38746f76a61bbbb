package adapters

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
)

// BinaryLocator는 호스트에 설치된 실행 파일의 경로를 찾는 인터페이스입니다
type BinaryLocator interface {
	// Locate는 이름으로 실행 파일의 절대 경로를 찾습니다
	Locate(name string) (string, error)
}

// RealBinaryLocator is a BinaryLocator implementation that probes the host filesystem
type RealBinaryLocator struct {
	fileSystem  interfaces.FileSystem
	searchPaths []string
}

// NewRealBinaryLocator creates a new RealBinaryLocator
func NewRealBinaryLocator(fs interfaces.FileSystem, searchPaths []string) BinaryLocator {
	return &RealBinaryLocator{
		fileSystem:  fs,
		searchPaths: searchPaths,
	}
}

// Locate returns the first matching path for the named binary.
// An absolute name is verified as-is; a bare name is probed against
// the configured search paths in order.
func (l *RealBinaryLocator) Locate(name string) (string, error) {
	if name == "" {
		return "", errors.NewValidationError("바이너리 이름이 비어있음", nil)
	}

	if strings.Contains(name, "/") {
		if l.fileSystem.Exists(name) {
			return name, nil
		}
		return "", errors.NewNotFoundError(fmt.Sprintf("바이너리를 찾을 수 없음: %s", name))
	}

	for _, dir := range l.searchPaths {
		candidate := filepath.Join(dir, name)
		if l.fileSystem.Exists(candidate) {
			return candidate, nil
		}
	}

	return "", errors.NewNotFoundError(fmt.Sprintf(
		"바이너리를 찾을 수 없음: %s (탐색 경로: %s)", name, strings.Join(l.searchPaths, ", ")))
}
