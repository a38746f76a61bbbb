//go:build !linux
// +build !linux

package adapters

import (
	"fmt"

	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
)

// RealProcessController는 비 Linux 플랫폼용 스텁입니다
type RealProcessController struct{}

// NewRealProcessController는 새로운 RealProcessController를 생성합니다
func NewRealProcessController() interfaces.ProcessController {
	return &RealProcessController{}
}

// Kill은 이 플랫폼에서 지원되지 않습니다
func (p *RealProcessController) Kill(pid int) error {
	return errors.NewSystemError(fmt.Sprintf("이 플랫폼에서는 프로세스 종료를 지원하지 않음 (pid=%d)", pid), nil)
}
