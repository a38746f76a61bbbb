package netinfo

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/pkg/utils"
)

// FallbackFinder는 지정된 NIC이 없을 때 DHCP를 시도할 디바이스를 고르는
// FallbackSelector 구현입니다. 커널 이름이 아직 안정화되지 않았으면
// udev 이벤트가 가라앉기를 기다린 뒤 후보를 평가합니다
type FallbackFinder struct {
	sysfs         *Sysfs
	fileSystem    interfaces.FileSystem
	executor      interfaces.CommandExecutor
	logger        *logrus.Logger
	procDir       string
	settleTimeout time.Duration
}

// NewFallbackFinder는 새로운 FallbackFinder를 생성합니다
func NewFallbackFinder(
	sysfs *Sysfs,
	fs interfaces.FileSystem,
	executor interfaces.CommandExecutor,
	logger *logrus.Logger,
	procDir string,
	settleTimeout time.Duration,
) *FallbackFinder {
	return &FallbackFinder{
		sysfs:         sysfs,
		fileSystem:    fs,
		executor:      executor,
		logger:        logger,
		procDir:       procDir,
		settleTimeout: settleTimeout,
	}
}

// FindFallbackNIC은 폴백 NIC의 이름을 반환합니다.
// carrier가 있는 후보를 우선하고, 없으면 올라오면 carrier를 얻을 수도 있는
// 후보(dormant/down 등)로 물러납니다. 어느 쪽도 없으면 NOT_FOUND입니다
func (f *FallbackFinder) FindFallbackNIC(ctx context.Context, blacklistDrivers []string) (string, error) {
	f.settleIfUnstable(ctx)

	names, err := f.sysfs.ListDevices()
	if err != nil {
		return "", domainErrors.NewSystemError("네트워크 디바이스 목록 조회 실패", err)
	}

	var connected []string
	var possiblyConnected []string
	for _, name := range names {
		if !f.candidate(name, blacklistDrivers) {
			continue
		}

		if f.sysfs.HasCarrier(name) {
			connected = append(connected, name)
			continue
		}
		// dormant거나 down인 NIC은 carrier가 없어 보여도 올리면 얻을 수 있습니다
		if f.sysfs.IsDormant(name) {
			possiblyConnected = append(possiblyConnected, name)
			continue
		}
		switch f.sysfs.Operstate(name) {
		case "dormant", "down", "lowerlayerdown", "unknown":
			possiblyConnected = append(possiblyConnected, name)
		}
	}

	candidates := connected
	if len(candidates) == 0 {
		candidates = possiblyConnected
	}
	if len(candidates) == 0 {
		return "", domainErrors.NewNotFoundError("연결 가능성이 있는 폴백 NIC 없음")
	}

	orderCandidates(candidates)

	for _, name := range candidates {
		if f.sysfs.MAC(name) != "" {
			f.logger.WithField("interface", name).Info("폴백 NIC 선택")
			return name, nil
		}
	}
	return "", domainErrors.NewNotFoundError("MAC 주소를 읽을 수 있는 폴백 NIC 없음")
}

// settleIfUnstable은 커널 명령행이 예측 가능한 이름(net.ifnames=0)을 강제하지
// 않았고 아직 eth* 밖의 이름이 보이면 udev 이벤트가 가라앉기를 기다립니다.
// udev 개명이 끝나기 전의 이름을 선택하면 이후 조작이 엉뚱한 NIC을 겨냥합니다
func (f *FallbackFinder) settleIfUnstable(ctx context.Context) {
	cmdline, err := f.fileSystem.ReadFile(filepath.Join(f.procDir, "cmdline"))
	if err == nil && strings.Contains(string(cmdline), "net.ifnames=0") {
		f.logger.Debug("net.ifnames=0으로 이름이 고정되어 settle 생략")
		return
	}

	names, err := f.sysfs.ListDevices()
	if err != nil {
		return
	}
	var unstable []string
	for _, name := range names {
		if name != "lo" && !strings.HasPrefix(name, "eth") {
			unstable = append(unstable, name)
		}
	}
	if len(unstable) == 0 {
		return
	}

	f.logger.WithField("interfaces", unstable).Debug("불안정한 NIC 이름 감지, udev settle 대기")
	timeoutArg := fmt.Sprintf("--timeout=%d", int(f.settleTimeout.Seconds()))
	if _, err := f.executor.Execute(ctx, "udevadm", "settle", timeoutArg); err != nil {
		// settle 실패해도 후보 평가는 계속합니다 (컨테이너에는 udevadm이 없을 수 있음)
		f.logger.WithError(err).Warn("udevadm settle 실패")
	}
}

// candidate는 디바이스가 폴백 후보가 될 수 있는지 확인합니다
func (f *FallbackFinder) candidate(name string, blacklistDrivers []string) bool {
	if name == "lo" {
		return false
	}
	if strings.HasPrefix(name, "veth") {
		return false
	}
	if f.sysfs.IsBridge(name) || f.sysfs.IsBond(name) {
		return false
	}
	if f.sysfs.IsNetfailover(name) {
		return false
	}
	driver := f.sysfs.Driver(name)
	for _, blacklisted := range blacklistDrivers {
		if driver == blacklisted {
			f.logger.WithFields(logrus.Fields{
				"interface": name,
				"driver":    driver,
			}).Debug("블랙리스트 드라이버 제외")
			return false
		}
	}
	return true
}

// orderCandidates는 후보를 자연 정렬하고 eth0이 있으면 맨 앞으로 옮깁니다
func orderCandidates(candidates []string) {
	sort.Slice(candidates, func(i, j int) bool {
		return utils.NaturalLess(candidates[i], candidates[j])
	})
	for i, name := range candidates {
		if name == "eth0" && i != 0 {
			copy(candidates[1:i+1], candidates[:i])
			candidates[0] = "eth0"
			break
		}
	}
}
