package entities

import (
	"fmt"
	"net"
	"strings"
)

// Lease는 DHCP 트랜잭션 하나가 제공한 옵션 집합입니다 (옵션 이름 → 값).
// 리스 파일에는 여러 리스가 시간순으로 쌓일 수 있으며 가장 마지막 것이 최신입니다
type Lease map[string]string

// ISC dhclient 리스 파일이 사용하는 옵션 키들
const (
	LeaseKeyFixedAddress   = "fixed-address"
	LeaseKeySubnetMask     = "subnet-mask"
	LeaseKeyBroadcast      = "broadcast-address"
	LeaseKeyRouters        = "routers"
	LeaseKeyDNSServers     = "domain-name-servers"
	LeaseKeyStaticRoutes   = "rfc3442-classless-static-routes"
	LeaseKeyStaticRoutesMS = "classless-static-routes"
	LeaseKeyInterface      = "interface"
)

// Address는 리스가 부여한 IPv4 주소를 반환합니다
func (l Lease) Address() string {
	return l[LeaseKeyFixedAddress]
}

// SubnetMask는 서브넷 마스크를 반환합니다
func (l Lease) SubnetMask() string {
	return l[LeaseKeySubnetMask]
}

// Broadcast는 브로드캐스트 주소를 반환합니다 (없으면 빈 문자열)
func (l Lease) Broadcast() string {
	return l[LeaseKeyBroadcast]
}

// Router는 routers 옵션의 첫 번째 게이트웨이를 반환합니다
func (l Lease) Router() string {
	routers := strings.ReplaceAll(l[LeaseKeyRouters], ",", " ")
	fields := strings.Fields(routers)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// StaticRouteData는 클래스리스 정적 라우트 옵션 값을 반환합니다.
// RFC 표기와 MS 사설 표기 중 존재하는 쪽을 사용합니다
func (l Lease) StaticRouteData() string {
	if v := l[LeaseKeyStaticRoutes]; v != "" {
		return v
	}
	return l[LeaseKeyStaticRoutesMS]
}

// StaticRoute는 (목적지 CIDR, 게이트웨이) 쌍입니다.
// 라우트는 이 순서대로 적용되고 해제되므로 순서가 의미를 가집니다
type StaticRoute struct {
	Destination string
	Gateway     string
}

// ParsePrefixOrMask는 "24" 같은 프리픽스 길이 또는 "255.255.255.0" 같은
// 닷 표기 마스크를 프리픽스 길이로 변환합니다
func ParsePrefixOrMask(value string) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("빈 프리픽스/마스크 값")
	}

	if !strings.Contains(value, ".") {
		var prefix int
		if _, err := fmt.Sscanf(value, "%d", &prefix); err != nil {
			return 0, fmt.Errorf("프리픽스 길이 파싱 실패: %q", value)
		}
		if prefix < 0 || prefix > 32 {
			return 0, fmt.Errorf("프리픽스 길이 범위 초과: %d", prefix)
		}
		return prefix, nil
	}

	ip := net.ParseIP(value)
	if ip == nil {
		return 0, fmt.Errorf("마스크 파싱 실패: %q", value)
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, fmt.Errorf("IPv4 마스크가 아님: %q", value)
	}
	ones, bits := net.IPv4Mask(v4[0], v4[1], v4[2], v4[3]).Size()
	if bits != 32 || (ones == 0 && value != "0.0.0.0") {
		return 0, fmt.Errorf("연속되지 않은 마스크: %q", value)
	}
	return ones, nil
}

// BroadcastAddress는 주소와 마스크로부터 브로드캐스트 주소를 계산합니다.
// 리스에 broadcast-address 옵션이 없을 때 사용합니다
func BroadcastAddress(address, mask string) (string, error) {
	ip := net.ParseIP(address)
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("IPv4 주소 파싱 실패: %q", address)
	}
	prefix, err := ParsePrefixOrMask(mask)
	if err != nil {
		return "", err
	}

	v4 := ip.To4()
	netMask := net.CIDRMask(prefix, 32)
	bcast := make(net.IP, 4)
	for i := 0; i < 4; i++ {
		bcast[i] = v4[i] | ^netMask[i]
	}
	return bcast.String(), nil
}
