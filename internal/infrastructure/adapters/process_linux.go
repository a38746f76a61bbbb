//go:build linux
// +build linux

package adapters

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
)

// RealProcessController는 커널 시그널로 프로세스를 제어하는 구현체입니다
type RealProcessController struct{}

// NewRealProcessController는 새로운 RealProcessController를 생성합니다
func NewRealProcessController() interfaces.ProcessController {
	return &RealProcessController{}
}

// Kill은 프로세스에 SIGKILL을 보냅니다.
// 데몬화가 끝난 dhclient에는 하드 킬만 사용합니다. SIGTERM 후 대기는
// 리스 파일 내구성과 경합할 수 있기 때문입니다
func (p *RealProcessController) Kill(pid int) error {
	if pid <= 0 {
		return errors.NewValidationError(fmt.Sprintf("유효하지 않은 PID: %d", pid), nil)
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil {
		// 이미 사라진 프로세스는 목적이 달성된 것으로 간주합니다
		if err == unix.ESRCH {
			return nil
		}
		return errors.NewSystemError(fmt.Sprintf("프로세스 %d 종료 실패", pid), err)
	}

	return nil
}
