package netinfo

import (
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
)

// 커널이 자체 MAC 없는 디바이스에 기록하는 주소
const emptyMac = "00:00:00:00:00:00"

// virtio-net 디바이스의 standby(페일오버) 기능 비트 위치
const standbyFeatureBit = 62

// Sysfs는 설정 가능한 루트(/sys/class/net) 아래의 인터페이스 속성을
// FileSystem을 통해 읽습니다. 모든 조회는 부수 효과가 없습니다
type Sysfs struct {
	fileSystem interfaces.FileSystem
	root       string
}

// NewSysfs는 새로운 Sysfs를 생성합니다
func NewSysfs(fs interfaces.FileSystem, root string) *Sysfs {
	return &Sysfs{
		fileSystem: fs,
		root:       root,
	}
}

// DevicePath는 인터페이스 속성 파일의 전체 경로를 반환합니다
func (s *Sysfs) DevicePath(iface string, elem ...string) string {
	return filepath.Join(append([]string{s.root, iface}, elem...)...)
}

// HasDevice는 디바이스 디렉토리가 존재하는지 확인합니다
func (s *Sysfs) HasDevice(iface string) bool {
	return s.fileSystem.Exists(filepath.Join(s.root, iface))
}

// ListDevices는 루트 아래의 디바이스 이름을 정렬된 순서로 반환합니다
func (s *Sysfs) ListDevices() ([]string, error) {
	names, err := s.fileSystem.ListDir(s.root)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// ReadAttr은 속성 파일을 읽어 공백을 제거한 값을 반환합니다
func (s *Sysfs) ReadAttr(iface string, attr string) (string, error) {
	content, err := s.fileSystem.ReadFile(s.DevicePath(iface, attr))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

// readAttrInt는 정수 속성을 읽습니다. 읽기/파싱 실패는 (0, false)입니다.
// carrier 같은 파일은 링크가 내려가 있으면 읽기 자체가 EINVAL로 실패하므로
// 실패를 "값 없음"으로 취급합니다
func (s *Sysfs) readAttrInt(iface string, attr string) (int, bool) {
	value, err := s.ReadAttr(iface, attr)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MAC은 인터페이스의 MAC 주소를 소문자로 반환합니다 (없으면 빈 문자열)
func (s *Sysfs) MAC(iface string) string {
	value, err := s.ReadAttr(iface, "address")
	if err != nil {
		return ""
	}
	return strings.ToLower(value)
}

// Driver는 device/driver 심볼릭 링크의 끝 이름을 반환합니다 (없으면 빈 문자열)
func (s *Sysfs) Driver(iface string) string {
	target, err := s.fileSystem.Readlink(s.DevicePath(iface, "device", "driver"))
	if err != nil {
		return ""
	}
	return path.Base(target)
}

// DeviceID는 device/device 파일의 디바이스 ID를 반환합니다 (없으면 빈 문자열)
func (s *Sysfs) DeviceID(iface string) string {
	value, err := s.ReadAttr(iface, "device/device")
	if err != nil {
		return ""
	}
	return value
}

// HasOwnMAC은 인터페이스가 자체 MAC을 가지는지 확인합니다.
// addr_assign_type 0(영구)/1(무작위)/3(수동 설정)은 자체 MAC이며,
// 2는 본드/브리지 마스터에게서 빌려온 것입니다. 파일이 없으면 0으로 간주합니다
func (s *Sysfs) HasOwnMAC(iface string) bool {
	assignType, ok := s.readAttrInt(iface, "addr_assign_type")
	if !ok {
		assignType = 0
	}
	return assignType == 0 || assignType == 1 || assignType == 3
}

// IsBridge는 인터페이스가 브리지인지 확인합니다
func (s *Sysfs) IsBridge(iface string) bool {
	return s.fileSystem.Exists(s.DevicePath(iface, "bridge"))
}

// IsBond는 인터페이스가 본드인지 확인합니다
func (s *Sysfs) IsBond(iface string) bool {
	return s.fileSystem.Exists(s.DevicePath(iface, "bonding"))
}

// IsVlan은 uevent의 DEVTYPE으로 VLAN 여부를 확인합니다
func (s *Sysfs) IsVlan(iface string) bool {
	uevent, err := s.ReadAttr(iface, "uevent")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(uevent, "\n") {
		if strings.TrimSpace(line) == "DEVTYPE=vlan" {
			return true
		}
	}
	return false
}

// IsUp은 operstate 기준으로 administratively up 상태인지 확인합니다.
// unknown은 up으로 취급합니다 (루프백과 일부 가상 NIC은 항상 unknown)
func (s *Sysfs) IsUp(iface string) bool {
	operstate, err := s.ReadAttr(iface, "operstate")
	if err != nil {
		return false
	}
	state := strings.ToLower(operstate)
	return state == "up" || state == "unknown"
}

// MasterName은 master 심볼릭 링크가 가리키는 디바이스 이름을 반환합니다
func (s *Sysfs) MasterName(iface string) (string, bool) {
	target, err := s.fileSystem.Readlink(s.DevicePath(iface, "master"))
	if err != nil {
		return "", false
	}
	return path.Base(target), true
}

// HasCarrier는 carrier가 1인지 확인합니다 (링크 down 시 읽기 실패 = false)
func (s *Sysfs) HasCarrier(iface string) bool {
	carrier, ok := s.readAttrInt(iface, "carrier")
	return ok && carrier != 0
}

// IsDormant는 dormant 플래그가 켜져 있는지 확인합니다
func (s *Sysfs) IsDormant(iface string) bool {
	dormant, ok := s.readAttrInt(iface, "dormant")
	return ok && dormant != 0
}

// Operstate는 operstate 값을 소문자로 반환합니다 (읽기 실패 시 "unknown")
func (s *Sysfs) Operstate(iface string) string {
	operstate, err := s.ReadAttr(iface, "operstate")
	if err != nil {
		return "unknown"
	}
	return strings.ToLower(operstate)
}

// hasStandbyFeature는 virtio 기능 비트열에서 standby 비트를 확인합니다.
// device/features는 '0'/'1' 문자 64개의 비트열입니다
func (s *Sysfs) hasStandbyFeature(iface string) bool {
	features, err := s.ReadAttr(iface, "device/features")
	if err != nil {
		return false
	}
	if len(features) <= standbyFeatureBit {
		return false
	}
	return features[standbyFeatureBit] == '1'
}

// IsNetfailMaster는 virtio-net 페일오버 3인조의 마스터인지 확인합니다:
// master 링크가 없고, 드라이버가 virtio_net이며, standby 비트가 켜져 있음
func (s *Sysfs) IsNetfailMaster(iface string) bool {
	if _, hasMaster := s.MasterName(iface); hasMaster {
		return false
	}
	if s.Driver(iface) != "virtio_net" {
		return false
	}
	return s.hasStandbyFeature(iface)
}

// IsNetfailPrimary는 페일오버 3인조의 프라이머리(VF 패스스루)인지 확인합니다:
// master가 있고, 자체 드라이버는 virtio_net이 아니며, master가 netfail 마스터 조건을 만족
func (s *Sysfs) IsNetfailPrimary(iface string) bool {
	master, hasMaster := s.MasterName(iface)
	if !hasMaster {
		return false
	}
	if s.Driver(iface) == "virtio_net" {
		return false
	}
	if s.Driver(master) != "virtio_net" {
		return false
	}
	return s.hasStandbyFeature(master)
}

// IsNetfailStandby는 페일오버 3인조의 스탠바이인지 확인합니다:
// master가 있고, 드라이버가 virtio_net이며, standby 비트가 켜져 있음
func (s *Sysfs) IsNetfailStandby(iface string) bool {
	if _, hasMaster := s.MasterName(iface); !hasMaster {
		return false
	}
	if s.Driver(iface) != "virtio_net" {
		return false
	}
	return s.hasStandbyFeature(iface)
}

// IsNetfailover는 페일오버 3인조 멤버(프라이머리 또는 스탠바이)인지 확인합니다.
// 이들은 이름 변경 대상에서도, 폴백 NIC 후보에서도 제외됩니다
func (s *Sysfs) IsNetfailover(iface string) bool {
	return s.IsNetfailPrimary(iface) || s.IsNetfailStandby(iface)
}
