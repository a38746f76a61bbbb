package dhcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/constants"
	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/adapters"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/config"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/metrics"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/netinfo"
	"github.com/canonical/cloud-init-sub001/pkg/utils"
)

// DhclientAcquirer는 ISC dhclient를 샌드박스 아티팩트 경로로 실행해
// 리스를 획득하는 LeaseAcquirer 구현입니다. 훅 스크립트를 무력화하므로
// resolv.conf 같은 시스템 상태를 건드리지 않습니다
type DhclientAcquirer struct {
	executor   interfaces.CommandExecutor
	fileSystem interfaces.FileSystem
	clock      interfaces.Clock
	process    interfaces.ProcessController
	locator    adapters.BinaryLocator
	sysfs      *netinfo.Sysfs
	logger     *logrus.Logger
	dhcpConfig config.DHCPConfig
	runDir     string
	procDir    string
}

// NewDhclientAcquirer는 새로운 DhclientAcquirer를 생성합니다
func NewDhclientAcquirer(
	executor interfaces.CommandExecutor,
	fs interfaces.FileSystem,
	clock interfaces.Clock,
	process interfaces.ProcessController,
	locator adapters.BinaryLocator,
	sysfs *netinfo.Sysfs,
	logger *logrus.Logger,
	dhcpConfig config.DHCPConfig,
	runDir string,
	procDir string,
) *DhclientAcquirer {
	return &DhclientAcquirer{
		executor:   executor,
		fileSystem: fs,
		clock:      clock,
		process:    process,
		locator:    locator,
		sysfs:      sysfs,
		logger:     logger,
		dhcpConfig: dhcpConfig,
		runDir:     runDir,
		procDir:    procDir,
	}
}

// Discover는 인터페이스에서 일회성 DHCP 탐색을 수행하고 리스들을 반환합니다.
// 리스는 파일에 기록된 순서이며 마지막 것이 최신입니다
func (a *DhclientAcquirer) Discover(ctx context.Context, iface string) ([]entities.Lease, error) {
	started := a.clock.Now()
	leases, err := a.discover(ctx, iface)
	duration := a.clock.Now().Sub(started).Seconds()
	if err != nil {
		metrics.RecordDHCPDiscovery(config.BackendDhclient, "failed", duration)
		return nil, err
	}
	metrics.RecordDHCPDiscovery(config.BackendDhclient, "success", duration)
	return leases, nil
}

func (a *DhclientAcquirer) discover(ctx context.Context, iface string) ([]entities.Lease, error) {
	if iface == "" {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNotFound,
			Message: "DHCP 탐색 대상 인터페이스가 비어 있음",
			Cause:   domainErrors.ErrNoInterface,
		}
	}
	if !a.sysfs.HasDevice(iface) {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNotFound,
			Message: fmt.Sprintf("인터페이스 %s가 존재하지 않음", iface),
			Cause:   domainErrors.ErrNoInterface,
		}
	}

	clientPath, err := a.locateClient()
	if err != nil {
		return nil, err
	}

	leaseFile := filepath.Join(a.runDir, constants.LeaseFileName)
	pidFile := filepath.Join(a.runDir, constants.PidFileName)
	if err := a.prepareRunDir(leaseFile, pidFile); err != nil {
		return nil, err
	}

	// 훅 스크립트를 껐으므로 PREINIT이 해주던 링크 up을 직접 수행합니다
	if _, err := a.executor.Execute(ctx, "ip", "link", "set", "dev", iface, "up"); err != nil {
		return nil, domainErrors.NewNetworkError(fmt.Sprintf("링크 up 실패: %s", iface), err)
	}

	a.logger.WithFields(logrus.Fields{
		"interface": iface,
		"client":    clientPath,
	}).Info("DHCP 탐색 시작")

	args := []string{
		"-1", "-v",
		"-lf", leaseFile,
		"-pf", pidFile,
		"-sf", constants.NoOpScriptPath,
		iface,
	}
	if _, err := a.executor.ExecuteWithTimeout(ctx, a.dhcpConfig.DiscoveryTimeout, clientPath, args...); err != nil {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("dhclient 실행 실패: %s", iface),
			Cause:   fmt.Errorf("%w: %v", domainErrors.ErrNoLease, err),
		}
	}

	if err := a.waitForArtifacts(ctx, leaseFile, pidFile); err != nil {
		return nil, err
	}

	// dhclient가 백그라운드로 남아 리스를 갱신하려 들지 않도록 데몬화를
	// 기다렸다가 종료합니다. 데몬화 자체가 리스 기록 완료의 신호이기도 합니다
	a.reapDaemon(ctx, pidFile)

	content, err := a.fileSystem.ReadFile(leaseFile)
	if err != nil {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("리스 파일 읽기 실패: %s", leaseFile),
			Cause:   fmt.Errorf("%w: %v", domainErrors.ErrInvalidLeaseFile, err),
		}
	}
	leases := ParseLeaseFile(string(content))
	if len(leases) == 0 {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("리스 파일에서 리스를 찾을 수 없음: %s", leaseFile),
			Cause:   domainErrors.ErrInvalidLeaseFile,
		}
	}

	a.logger.WithFields(logrus.Fields{
		"interface": iface,
		"leases":    len(leases),
	}).Info("DHCP 탐색 완료")
	return leases, nil
}

// locateClient는 설정된 경로 또는 탐색 경로에서 dhclient를 찾습니다
func (a *DhclientAcquirer) locateClient() (string, error) {
	name := a.dhcpConfig.ClientPath
	if name == "" {
		name = constants.DhclientBinaryName
	}
	clientPath, err := a.locator.Locate(name)
	if err != nil {
		return "", &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("dhclient 바이너리를 찾을 수 없음: %s", name),
			Cause:   domainErrors.ErrNoClientBinary,
		}
	}
	return clientPath, nil
}

// prepareRunDir은 아티팩트 디렉토리를 만들고 이전 실행의 잔재를 제거합니다
func (a *DhclientAcquirer) prepareRunDir(leaseFile, pidFile string) error {
	if err := a.fileSystem.MkdirAll(a.runDir, constants.ArtifactDirPermission); err != nil {
		return domainErrors.NewSystemError(fmt.Sprintf("아티팩트 디렉토리 생성 실패: %s", a.runDir), err)
	}
	for _, stale := range []string{leaseFile, pidFile} {
		if !a.fileSystem.Exists(stale) {
			continue
		}
		if err := a.fileSystem.Remove(stale); err != nil {
			return domainErrors.NewSystemError(fmt.Sprintf("이전 아티팩트 제거 실패: %s", stale), err)
		}
	}
	return nil
}

// waitForArtifacts는 리스 파일과 pid 파일이 모두 생길 때까지 기다립니다
func (a *DhclientAcquirer) waitForArtifacts(ctx context.Context, leaseFile, pidFile string) error {
	ok, err := utils.PollUntil(ctx, a.clock, a.dhcpConfig.ArtifactPollInterval, a.dhcpConfig.ArtifactWaitTimeout,
		func() (bool, error) {
			return a.fileSystem.Exists(pidFile) && a.fileSystem.Exists(leaseFile), nil
		})
	if err != nil {
		return err
	}
	if !ok {
		return &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeTimeout,
			Message: fmt.Sprintf("dhclient 아티팩트 대기 시간 초과 (%s)", a.dhcpConfig.ArtifactWaitTimeout),
			Cause:   domainErrors.ErrLeaseTimeout,
		}
	}
	return nil
}

// reapDaemon은 dhclient가 데몬화(부모가 init이 됨)할 때까지 기다렸다가
// SIGKILL로 종료합니다. 제한 시간을 넘겨도 리스는 이미 기록됐을 수 있으므로
// 경고만 남기고 계속합니다
func (a *DhclientAcquirer) reapDaemon(ctx context.Context, pidFile string) {
	var pid int
	daemonized, err := utils.PollUntil(ctx, a.clock, a.dhcpConfig.DaemonizePollInterval, a.dhcpConfig.DaemonizeWaitTimeout,
		func() (bool, error) {
			content, readErr := a.fileSystem.ReadFile(pidFile)
			if readErr != nil {
				return false, nil
			}
			parsed, parseErr := strconv.Atoi(strings.TrimSpace(string(content)))
			if parseErr != nil {
				return false, nil
			}
			pid = parsed
			ppid, ok := a.parentPid(parsed)
			return ok && ppid == 1, nil
		})
	if err != nil {
		a.logger.WithError(err).Warn("dhclient 데몬화 대기 중단")
		return
	}
	if !daemonized {
		a.logger.WithFields(logrus.Fields{
			"pid":     pid,
			"timeout": a.dhcpConfig.DaemonizeWaitTimeout.String(),
		}).Warn("dhclient가 제한 시간 안에 데몬화되지 않음")
		return
	}

	a.logger.WithField("pid", pid).Debug("데몬화된 dhclient 종료")
	if err := a.process.Kill(pid); err != nil {
		a.logger.WithError(err).WithField("pid", pid).Warn("dhclient 종료 실패")
	}
}

// parentPid는 /proc/<pid>/stat에서 부모 pid를 읽습니다.
// 두 번째 필드(comm)는 괄호 안에 공백을 품을 수 있으므로
// 마지막 ')' 뒤에서 필드를 셉니다
func (a *DhclientAcquirer) parentPid(pid int) (int, bool) {
	content, err := a.fileSystem.ReadFile(filepath.Join(a.procDir, strconv.Itoa(pid), "stat"))
	if err != nil {
		return 0, false
	}
	stat := string(content)
	idx := strings.LastIndex(stat, ")")
	if idx < 0 || idx+1 >= len(stat) {
		return 0, false
	}
	fields := strings.Fields(stat[idx+1:])
	if len(fields) < 2 {
		return 0, false
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return ppid, true
}
