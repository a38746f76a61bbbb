package netinfo

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
)

// Hyper-V에서 VF와 합성 NIC이 같은 MAC을 공유할 때 합성 쪽의 드라이버 이름
const hyperVDriver = "hv_netvsc"

// Inventory는 sysfs 기반의 DeviceInventory 구현입니다.
// 이름 변경이나 폴백 선택의 대상이 될 수 있는 물리 인터페이스만 나열합니다
type Inventory struct {
	sysfs  *Sysfs
	hwInfo interfaces.HardwareInfoSource
	logger *logrus.Logger
}

// NewInventory는 새로운 Inventory를 생성합니다.
// hwInfo는 sysfs에 드라이버/디바이스 ID가 없을 때의 보조 소스이며 nil일 수 있습니다
func NewInventory(sysfs *Sysfs, hwInfo interfaces.HardwareInfoSource, logger *logrus.Logger) *Inventory {
	return &Inventory{
		sysfs:  sysfs,
		hwInfo: hwInfo,
		logger: logger,
	}
}

// ListInterfaces는 자체 MAC을 가진 물리 인터페이스 목록을 이름 순서로 반환합니다.
// 브리지, VLAN, 본드, 페일오버 멤버, MAC 없는 디바이스는 제외됩니다
func (i *Inventory) ListInterfaces(ctx context.Context) ([]entities.InterfaceRecord, error) {
	names, err := i.sysfs.ListDevices()
	if err != nil {
		return nil, domainErrors.NewSystemError("네트워크 디바이스 목록 조회 실패", err)
	}

	records := make([]entities.InterfaceRecord, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !i.includable(name) {
			continue
		}

		mac := i.sysfs.MAC(name)
		// tun 같은 일부 디바이스는 MAC이 없습니다
		if mac == "" {
			continue
		}
		if name != "lo" && mac == emptyMac {
			continue
		}

		records = append(records, entities.InterfaceRecord{
			Name:     name,
			Mac:      mac,
			Driver:   i.driverName(name),
			DeviceID: i.deviceID(name),
		})
	}

	return records, nil
}

// includable은 인터페이스가 인벤토리에 포함될 수 있는지 확인합니다
func (i *Inventory) includable(name string) bool {
	switch {
	case !i.sysfs.HasOwnMAC(name):
		i.logger.WithField("interface", name).Debug("차용 MAC 디바이스 제외")
		return false
	case i.sysfs.IsBridge(name):
		return false
	case i.sysfs.IsVlan(name):
		return false
	case i.sysfs.IsBond(name):
		return false
	case i.sysfs.IsNetfailover(name):
		i.logger.WithField("interface", name).Debug("페일오버 멤버 제외")
		return false
	}
	return true
}

// driverName은 sysfs에서 드라이버를 읽고, 없으면 하드웨어 정보 소스로 보완합니다
func (i *Inventory) driverName(name string) string {
	if driver := i.sysfs.Driver(name); driver != "" {
		return driver
	}
	if i.hwInfo == nil {
		return ""
	}
	driver, err := i.hwInfo.DriverName(name)
	if err != nil {
		return ""
	}
	return driver
}

// deviceID는 sysfs에서 디바이스 ID를 읽고, 없으면 버스 주소로 보완합니다
func (i *Inventory) deviceID(name string) string {
	if deviceID := i.sysfs.DeviceID(name); deviceID != "" {
		return deviceID
	}
	if i.hwInfo == nil {
		return ""
	}
	busInfo, err := i.hwInfo.BusInfo(name)
	if err != nil {
		return ""
	}
	return busInfo
}

// InterfacesByMAC은 MAC 주소에서 인터페이스 이름으로의 맵을 반환합니다.
// Hyper-V의 VF 페어링(hv_netvsc와 VF가 MAC 공유)은 합성 쪽이 조용히 이기고,
// 그 외의 중복 MAC은 CONFLICT 에러입니다
func (i *Inventory) InterfacesByMAC(ctx context.Context) (map[string]string, error) {
	records, err := i.ListInterfaces(ctx)
	if err != nil {
		return nil, err
	}

	byMac := make(map[string]string, len(records))
	drivers := make(map[string]string, len(records))
	for _, record := range records {
		existing, ok := byMac[record.Mac]
		if !ok {
			byMac[record.Mac] = record.Name
			drivers[record.Mac] = record.Driver
			continue
		}

		existingIsSynthetic := drivers[record.Mac] == hyperVDriver
		currentIsSynthetic := record.Driver == hyperVDriver
		if existingIsSynthetic != currentIsSynthetic {
			i.logger.WithFields(logrus.Fields{
				"mac":    record.Mac,
				"kept":   existing,
				"paired": record.Name,
			}).Debug("Hyper-V VF 페어링의 중복 MAC 허용")
			if currentIsSynthetic {
				byMac[record.Mac] = record.Name
				drivers[record.Mac] = record.Driver
			}
			continue
		}

		return nil, domainErrors.NewConflictError(
			fmt.Sprintf("중복 MAC 발견: '%s'와 '%s'가 MAC '%s'를 공유", record.Name, existing, record.Mac))
	}

	return byMac, nil
}

// IsUp은 인터페이스가 administratively up 상태인지 확인합니다
func (i *Inventory) IsUp(name string) bool {
	return i.sysfs.IsUp(name)
}
