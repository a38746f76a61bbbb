package interfaces

import (
	"context"
	"os"
	"time"
)

// CommandExecutor는 시스템 명령을 실행하는 인터페이스입니다
type CommandExecutor interface {
	// Execute는 명령을 실행하고 결과를 반환합니다
	Execute(ctx context.Context, command string, args ...string) ([]byte, error)

	// ExecuteWithTimeout은 타임아웃을 적용하여 명령을 실행합니다
	ExecuteWithTimeout(ctx context.Context, timeout time.Duration, command string, args ...string) ([]byte, error)
}

// FileSystem은 파일 시스템 작업을 추상화하는 인터페이스입니다
type FileSystem interface {
	// ReadFile은 파일을 읽습니다
	ReadFile(path string) ([]byte, error)

	// WriteFile은 파일에 데이터를 씁니다
	WriteFile(path string, data []byte, perm os.FileMode) error

	// Exists는 파일이나 디렉토리가 존재하는지 확인합니다
	Exists(path string) bool

	// MkdirAll은 디렉토리를 재귀적으로 생성합니다
	MkdirAll(path string, perm os.FileMode) error

	// Remove는 파일이나 디렉토리를 삭제합니다
	Remove(path string) error

	// ListFiles는 디렉토리의 파일 목록을 반환합니다
	ListFiles(path string) ([]string, error)

	// ListDir은 하위 디렉토리를 포함한 디렉토리의 엔트리 목록을 반환합니다
	ListDir(path string) ([]string, error)

	// Readlink는 심볼릭 링크가 가리키는 경로를 반환합니다
	Readlink(path string) (string, error)

	// Stat은 파일의 메타데이터를 반환합니다
	Stat(path string) (os.FileInfo, error)
}

// Clock은 시간 관련 작업을 추상화하는 인터페이스입니다
type Clock interface {
	// Now는 현재 시간을 반환합니다
	Now() time.Time

	// Sleep은 주어진 시간 동안 대기합니다 (테스트에서 가상 시간으로 대체 가능)
	Sleep(d time.Duration)
}

// ProcessController는 외부 프로세스 제어를 추상화하는 인터페이스입니다
type ProcessController interface {
	// Kill은 프로세스에 즉시 종료 시그널(SIGKILL)을 보냅니다
	Kill(pid int) error
}
