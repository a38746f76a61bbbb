package interfaces

import (
	"context"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
)

// DeviceInventory는 OS가 노출하는 인터페이스 속성의 읽기 전용 조회를 추상화합니다
type DeviceInventory interface {
	// ListInterfaces는 브리지/VLAN/차용 MAC 디바이스를 제외한 인터페이스 목록을 반환합니다
	ListInterfaces(ctx context.Context) ([]entities.InterfaceRecord, error)

	// InterfacesByMAC은 MAC 주소에서 인터페이스 이름으로의 맵을 반환합니다.
	// 페일오버 쌍이 아닌 두 디바이스가 MAC을 공유하면 실패합니다
	InterfacesByMAC(ctx context.Context) (map[string]string, error)

	// IsUp은 인터페이스가 administratively up 상태인지 확인합니다
	IsUp(name string) bool
}

// FallbackSelector는 지정된 디바이스가 없을 때 가장 유력한 기본 NIC을 고릅니다
type FallbackSelector interface {
	// FindFallbackNIC은 폴백 NIC의 이름을 반환합니다
	FindFallbackNIC(ctx context.Context, blacklistDrivers []string) (string, error)
}

// LinkManager는 네트워크 링크 조작을 추상화하는 인터페이스입니다
type LinkManager interface {
	// SetLinkUp은 링크를 administratively up 상태로 만듭니다
	SetLinkUp(ctx context.Context, name string) error

	// SetLinkDown은 링크를 administratively down 상태로 만듭니다
	SetLinkDown(ctx context.Context, name string) error

	// RenameLink는 링크의 이름을 변경합니다 (링크가 down 상태여야 합니다)
	RenameLink(ctx context.Context, current, newName string) error

	// AddressedInterfaceNames는 영구 주소를 가진 인터페이스 이름 집합을 반환합니다.
	// downable 판단에 사용됩니다
	AddressedInterfaceNames(ctx context.Context) (map[string]struct{}, error)
}

// LeaseAcquirer는 단일 인터페이스에서 일회성 DHCP 리스를 획득하는 인터페이스입니다
type LeaseAcquirer interface {
	// Discover는 리스를 획득하고 파일에 기록된 순서대로 반환합니다 (마지막 것이 최신)
	Discover(ctx context.Context, iface string) ([]entities.Lease, error)
}

// HardwareInfoSource는 sysfs에 없는 드라이버/디바이스 정보를 조회하는 인터페이스입니다
type HardwareInfoSource interface {
	// DriverName은 인터페이스의 드라이버 이름을 반환합니다
	DriverName(iface string) (string, error)

	// BusInfo는 인터페이스의 버스 주소를 반환합니다
	BusInfo(iface string) (string, error)
}

// RenameTargetSource는 외부 설정에서 이름 변경 대상 목록을 읽는 인터페이스입니다
type RenameTargetSource interface {
	// Targets는 설정이 선언한 대상들을 설정 순서대로 반환합니다
	Targets() ([]entities.RenameTarget, error)
}

// ConnectivityChecker는 이미 연결성이 있는지 확인하는 인터페이스입니다
type ConnectivityChecker interface {
	// HasConnectivity는 주어진 URL에 도달할 수 있으면 true를 반환합니다
	HasConnectivity(ctx context.Context, url string) bool
}

// EphemeralScope는 진입 시 네트워크 상태를 만들고 종료 시 전부 되돌리는 범위입니다
type EphemeralScope interface {
	// Enter는 범위를 설정합니다. 실패하더라도 이미 큐에 쌓인 정리 동작은 보존됩니다
	Enter(ctx context.Context) error

	// Close는 큐에 쌓인 정리 동작을 순서대로 모두 재생합니다
	Close(ctx context.Context) error
}

// DHCPScope는 리스 기반 임시 IPv4 범위입니다
type DHCPScope interface {
	EphemeralScope

	// Lease는 Enter가 획득한 최신 리스를 반환합니다 (획득 전이면 nil)
	Lease() entities.Lease
}

// EphemeralScopeFactory는 인터페이스별 임시 네트워크 범위를 생성합니다
type EphemeralScopeFactory interface {
	// NewDHCPv4Scope는 DHCP 리스 기반 IPv4 범위를 생성합니다
	NewDHCPv4Scope(iface string) DHCPScope

	// NewIPv6Scope는 링크 로컬 IPv6 범위를 생성합니다
	NewIPv6Scope(iface string) EphemeralScope
}
