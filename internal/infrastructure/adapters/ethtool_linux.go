//go:build linux
// +build linux

package adapters

import (
	"fmt"

	"github.com/safchain/ethtool"

	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
)

// EthtoolInfoSource는 ethtool ioctl로 드라이버 정보를 조회하는
// HardwareInfoSource 구현체입니다. sysfs의 device/driver 심볼릭 링크가
// 없는 디바이스(일부 가상 NIC)의 폴백 경로로 사용됩니다
type EthtoolInfoSource struct {
	handle *ethtool.Ethtool
}

// NewEthtoolInfoSource는 새로운 EthtoolInfoSource를 생성합니다
func NewEthtoolInfoSource() (interfaces.HardwareInfoSource, error) {
	h, err := ethtool.NewEthtool()
	if err != nil {
		return nil, errors.NewSystemError("ethtool 핸들 생성 실패", err)
	}
	return &EthtoolInfoSource{handle: h}, nil
}

// DriverName은 인터페이스의 드라이버 이름을 반환합니다
func (e *EthtoolInfoSource) DriverName(iface string) (string, error) {
	info, err := e.handle.DriverInfo(iface)
	if err != nil {
		return "", errors.NewSystemError(fmt.Sprintf("ethtool DriverInfo 실패: %s", iface), err)
	}
	return info.Driver, nil
}

// BusInfo는 인터페이스의 버스 주소(PCI 주소 등)를 반환합니다
func (e *EthtoolInfoSource) BusInfo(iface string) (string, error) {
	info, err := e.handle.DriverInfo(iface)
	if err != nil {
		return "", errors.NewSystemError(fmt.Sprintf("ethtool DriverInfo 실패: %s", iface), err)
	}
	return info.BusInfo, nil
}

// Close는 ethtool 핸들을 닫습니다
func (e *EthtoolInfoSource) Close() {
	e.handle.Close()
}
