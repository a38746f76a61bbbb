package network

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
)

// ip addr show 출력의 헤더 줄에서 인터페이스 이름을 뽑아냅니다.
// 예: "2: eth0: <BROADCAST...>" 또는 "3: eth0.100@eth0: <...>"
var addrHeaderRegex = regexp.MustCompile(`(?m)^[0-9]+:\s+([^@:\s]+)[@:]`)

// IPRouteAdapter는 iproute2의 ip 명령으로 링크를 조작하는 LinkManager 구현입니다
type IPRouteAdapter struct {
	commandExecutor interfaces.CommandExecutor
	logger          *logrus.Logger
	commandTimeout  time.Duration
}

// NewIPRouteAdapter는 새로운 IPRouteAdapter를 생성합니다
func NewIPRouteAdapter(
	executor interfaces.CommandExecutor,
	logger *logrus.Logger,
	commandTimeout time.Duration,
) *IPRouteAdapter {
	return &IPRouteAdapter{
		commandExecutor: executor,
		logger:          logger,
		commandTimeout:  commandTimeout,
	}
}

// SetLinkUp은 링크를 administratively up 상태로 만듭니다
func (a *IPRouteAdapter) SetLinkUp(ctx context.Context, name string) error {
	if _, err := a.commandExecutor.ExecuteWithTimeout(ctx, a.commandTimeout, "ip", "link", "set", name, "up"); err != nil {
		return errors.NewNetworkError(fmt.Sprintf("링크 up 실패: %s", name), err)
	}
	a.logger.WithField("interface", name).Debug("링크 up")
	return nil
}

// SetLinkDown은 링크를 administratively down 상태로 만듭니다
func (a *IPRouteAdapter) SetLinkDown(ctx context.Context, name string) error {
	if _, err := a.commandExecutor.ExecuteWithTimeout(ctx, a.commandTimeout, "ip", "link", "set", name, "down"); err != nil {
		return errors.NewNetworkError(fmt.Sprintf("링크 down 실패: %s", name), err)
	}
	a.logger.WithField("interface", name).Debug("링크 down")
	return nil
}

// RenameLink는 링크의 이름을 변경합니다. 커널 제약으로 링크가 down 상태여야 합니다
func (a *IPRouteAdapter) RenameLink(ctx context.Context, current, newName string) error {
	if _, err := a.commandExecutor.ExecuteWithTimeout(ctx, a.commandTimeout, "ip", "link", "set", current, "name", newName); err != nil {
		return errors.NewNetworkError(fmt.Sprintf("링크 이름 변경 실패: %s -> %s", current, newName), err)
	}
	a.logger.WithFields(logrus.Fields{
		"current": current,
		"new":     newName,
	}).Info("링크 이름 변경")
	return nil
}

// AddressedInterfaceNames는 영구 글로벌 IPv6 주소나 IPv4 주소를 가진
// 인터페이스 이름 집합을 반환합니다. 여기 없는 인터페이스는 잠시 내려도
// 연결을 잃지 않습니다 (자동 구성 주소는 링크가 올라오면 되살아남)
func (a *IPRouteAdapter) AddressedInterfaceNames(ctx context.Context) (map[string]struct{}, error) {
	names := make(map[string]struct{})

	outputs := make([][]byte, 0, 2)
	ipv6, err := a.commandExecutor.ExecuteWithTimeout(ctx, a.commandTimeout, "ip", "-6", "addr", "show", "permanent", "scope", "global")
	if err != nil {
		return nil, errors.NewNetworkError("IPv6 주소 조회 실패", err)
	}
	outputs = append(outputs, ipv6)

	ipv4, err := a.commandExecutor.ExecuteWithTimeout(ctx, a.commandTimeout, "ip", "-4", "addr", "show")
	if err != nil {
		return nil, errors.NewNetworkError("IPv4 주소 조회 실패", err)
	}
	outputs = append(outputs, ipv4)

	for _, output := range outputs {
		for _, match := range addrHeaderRegex.FindAllStringSubmatch(string(output), -1) {
			names[match[1]] = struct{}{}
		}
	}
	return names, nil
}
