//go:build !linux
// +build !linux

package adapters

import (
	"fmt"

	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
)

// EthtoolInfoSource는 비 Linux 플랫폼용 스텁입니다
type EthtoolInfoSource struct{}

// NewEthtoolInfoSource는 새로운 EthtoolInfoSource를 생성합니다
func NewEthtoolInfoSource() (interfaces.HardwareInfoSource, error) {
	return &EthtoolInfoSource{}, nil
}

// DriverName은 이 플랫폼에서 지원되지 않습니다
func (e *EthtoolInfoSource) DriverName(iface string) (string, error) {
	return "", errors.NewSystemError(fmt.Sprintf("이 플랫폼에서는 ethtool을 지원하지 않음: %s", iface), nil)
}

// BusInfo는 이 플랫폼에서 지원되지 않습니다
func (e *EthtoolInfoSource) BusInfo(iface string) (string, error) {
	return "", errors.NewSystemError(fmt.Sprintf("이 플랫폼에서는 ethtool을 지원하지 않음: %s", iface), nil)
}

// Close는 아무것도 하지 않습니다
func (e *EthtoolInfoSource) Close() {}
