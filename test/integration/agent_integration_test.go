//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/cloud-init-sub001/internal/application/usecases"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/config"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/container"
)

func TestEnvironmentConfigIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("통합 테스트는 -short 플래그와 함께 실행시 스킵됩니다")
	}

	t.Run("기본값 로드", func(t *testing.T) {
		loader := config.NewEnvironmentConfigLoader()
		cfg, err := loader.Load()

		assert.NoError(t, err)
		require.NotNil(t, cfg)

		// 기본값 확인
		assert.Equal(t, "/sys/class/net", cfg.Paths.SysfsNetDir)
		assert.Equal(t, "/run/cloud-init/net", cfg.Paths.RunDir)
		assert.Equal(t, "/var/lib/dhcp", cfg.Paths.LeaseArchiveDir)
		assert.Equal(t, config.BackendDhclient, cfg.DHCP.Backend)
		assert.Equal(t, 30*time.Second, cfg.DHCP.DiscoveryTimeout)
		assert.Equal(t, 120*time.Second, cfg.Network.SettleTimeout)
	})

	t.Run("환경 변수 재정의", func(t *testing.T) {
		t.Setenv("SYSFS_NET_DIR", "/tmp/fake-sys/class/net")
		t.Setenv("DHCP_BACKEND", "native")
		t.Setenv("DHCP_TIMEOUT", "5s")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := config.NewEnvironmentConfigLoader().Load()

		require.NoError(t, err)
		assert.Equal(t, "/tmp/fake-sys/class/net", cfg.Paths.SysfsNetDir)
		assert.Equal(t, config.BackendNative, cfg.DHCP.Backend)
		assert.Equal(t, 5*time.Second, cfg.DHCP.DiscoveryTimeout)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("지원하지 않는 백엔드 거부", func(t *testing.T) {
		t.Setenv("DHCP_BACKEND", "udhcpc")

		cfg, err := config.NewEnvironmentConfigLoader().Load()

		assert.Error(t, err)
		assert.True(t, domainErrors.IsValidationError(err))
		assert.Nil(t, cfg)
	})
}

func TestContainerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("통합 테스트는 -short 플래그와 함께 실행시 스킵됩니다")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	t.Run("의존성 컨테이너 초기화", func(t *testing.T) {
		cfg := testConfig(t)

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		assert.NotNil(t, appContainer.GetConfig())
		assert.NotNil(t, appContainer.GetDeviceInventory())
		assert.NotNil(t, appContainer.GetLeaseArchive())
		assert.NotNil(t, appContainer.GetConnectivityChecker())
		assert.NotNil(t, appContainer.GetApplyRenamesUseCase())
		assert.NotNil(t, appContainer.GetProvisionConnectivityUseCase())

		t.Log("의존성 컨테이너 초기화 성공")
	})

	t.Run("native 백엔드 초기화", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.DHCP.Backend = config.BackendNative

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		assert.NotNil(t, appContainer.GetProvisionConnectivityUseCase())
	})

	t.Run("지원하지 않는 백엔드 거부", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.DHCP.Backend = "udhcpc"

		appContainer, err := container.NewContainer(cfg, logger)

		assert.Error(t, err)
		assert.Nil(t, appContainer)
	})

	t.Run("sysfs 인벤토리 조회", func(t *testing.T) {
		cfg := testConfig(t)
		writeSysfsDevice(t, cfg.Paths.SysfsNetDir, "citest0", "00:16:3e:aa:bb:cc", "down")
		writeSysfsDevice(t, cfg.Paths.SysfsNetDir, "br0", "00:16:3e:dd:ee:ff", "up")
		require.NoError(t, os.MkdirAll(filepath.Join(cfg.Paths.SysfsNetDir, "br0", "bridge"), 0o755))

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		inventory := appContainer.GetDeviceInventory()

		records, err := inventory.ListInterfaces(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1, "브리지는 인벤토리에서 제외되어야 함")
		assert.Equal(t, "citest0", records[0].Name)
		assert.Equal(t, "00:16:3e:aa:bb:cc", records[0].Mac)
		assert.False(t, inventory.IsUp("citest0"))

		byMac, err := inventory.InterfacesByMAC(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"00:16:3e:aa:bb:cc": "citest0"}, byMac)
	})
}

func TestApplyRenamesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("통합 테스트는 -short 플래그와 함께 실행시 스킵됩니다")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("network-config 선언대로 이름 변경", func(t *testing.T) {
		cfg := testConfig(t)
		writeSysfsDevice(t, cfg.Paths.SysfsNetDir, "citest0", "00:16:3e:aa:bb:cc", "down")
		writeFile(t, cfg.Paths.NetworkConfigPath, renameNetworkConfig)
		ipLog := installFakeIP(t, fakeIPScript)

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		output, err := appContainer.GetApplyRenamesUseCase().Execute(ctx, usecases.ApplyRenamesInput{})

		require.NoError(t, err)
		require.NotNil(t, output)
		assert.Equal(t, 1, output.TargetCount)
		assert.Equal(t, 1, output.PlannedOps)
		assert.Equal(t, 1, output.ExecutedOps)
		assert.Equal(t, 0, output.FailedOps)

		// down 상태 디바이스는 주소 스냅샷 후 rename 한 번으로 끝나야 합니다
		assert.Equal(t, []string{
			"-6 addr show permanent scope global",
			"-4 addr show",
			"link set citest0 name eth7",
		}, ipLogLines(t, ipLog))

		t.Logf("이름 변경 실행 완료: %d건", output.ExecutedOps)
	})

	t.Run("이미 원하는 이름이면 변경 없음", func(t *testing.T) {
		cfg := testConfig(t)
		writeSysfsDevice(t, cfg.Paths.SysfsNetDir, "eth7", "00:16:3e:aa:bb:cc", "down")
		writeFile(t, cfg.Paths.NetworkConfigPath, renameNetworkConfig)
		ipLog := installFakeIP(t, fakeIPScript)

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		output, err := appContainer.GetApplyRenamesUseCase().Execute(ctx, usecases.ApplyRenamesInput{})

		require.NoError(t, err)
		assert.Equal(t, 1, output.TargetCount)
		assert.Equal(t, 0, output.PlannedOps)
		assert.Equal(t, []string{
			"-6 addr show permanent scope global",
			"-4 addr show",
		}, ipLogLines(t, ipLog))
	})

	t.Run("network-config가 없으면 아무것도 안 함", func(t *testing.T) {
		cfg := testConfig(t)
		writeSysfsDevice(t, cfg.Paths.SysfsNetDir, "citest0", "00:16:3e:aa:bb:cc", "down")
		ipLog := installFakeIP(t, fakeIPScript)

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		output, err := appContainer.GetApplyRenamesUseCase().Execute(ctx, usecases.ApplyRenamesInput{})

		require.NoError(t, err)
		assert.Equal(t, 0, output.TargetCount)
		assert.Empty(t, ipLogLines(t, ipLog))
	})
}

func TestProvisionConnectivityIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("통합 테스트는 -short 플래그와 함께 실행시 스킵됩니다")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	t.Run("폴백 NIC에 듀얼 스택 프로비저닝과 해제", func(t *testing.T) {
		cfg := testConfig(t)
		writeSysfsDevice(t, cfg.Paths.SysfsNetDir, "citest0", "00:16:3e:aa:bb:cc", "down")
		cfg.DHCP.ClientPath = installFakeDhclient(t, fakeDhclientScript)
		ipLog := installFakeIP(t, fakeIPScript)

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		useCase := appContainer.GetProvisionConnectivityUseCase()
		output, err := useCase.Execute(ctx, usecases.ProvisionConnectivityInput{IPv4: true, IPv6: true})

		require.NoError(t, err)
		require.NotNil(t, output)
		assert.Equal(t, "citest0", output.Interface, "유일한 후보가 폴백으로 선택되어야 함")
		assert.False(t, output.Degraded)
		require.NotNil(t, output.Lease)
		assert.Equal(t, "192.168.1.50", output.Lease.Address())
		assert.Equal(t, "192.168.1.1", output.Lease.Router())

		assert.Equal(t, []string{
			"link set dev citest0 up",
			"-family inet addr add 192.168.1.50/24 broadcast 192.168.1.255 dev citest0",
			"-family inet link set dev citest0 up",
			"route show 0.0.0.0/0",
			"-4 route add default via 192.168.1.1 dev citest0",
			"link set dev citest0 up",
		}, ipLogLines(t, ipLog))

		require.NoError(t, output.Close(ctx))

		// Close는 경로 -> 링크 -> 주소 순으로 진입의 역순 재생이어야 합니다
		assert.Equal(t, []string{
			"link set dev citest0 up",
			"-family inet addr add 192.168.1.50/24 broadcast 192.168.1.255 dev citest0",
			"-family inet link set dev citest0 up",
			"route show 0.0.0.0/0",
			"-4 route add default via 192.168.1.1 dev citest0",
			"link set dev citest0 up",
			"-4 route del default via 192.168.1.1 dev citest0",
			"-family inet link set dev citest0 down",
			"-family inet addr del 192.168.1.50/24 dev citest0",
		}, ipLogLines(t, ipLog))

		t.Log("임시 프로비저닝과 해제 성공")
	})

	t.Run("DHCP 실패 시 링크 로컬 IPv6로 격하", func(t *testing.T) {
		cfg := testConfig(t)
		writeSysfsDevice(t, cfg.Paths.SysfsNetDir, "citest0", "00:16:3e:aa:bb:cc", "down")
		cfg.DHCP.ClientPath = installFakeDhclient(t, failingDhclientScript)
		ipLog := installFakeIP(t, fakeIPScript)

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		useCase := appContainer.GetProvisionConnectivityUseCase()
		output, err := useCase.Execute(ctx, usecases.ProvisionConnectivityInput{
			Interface: "citest0",
			IPv4:      true,
			IPv6:      true,
		})

		require.NoError(t, err)
		assert.True(t, output.Degraded)
		assert.Equal(t, usecases.DegradationLinkLocalOnly, output.DegradationReason)
		assert.Nil(t, output.Lease)

		// 탐색 전의 링크 up과 IPv6 범위의 링크 up만 남아야 합니다
		assert.Equal(t, []string{
			"link set dev citest0 up",
			"link set dev citest0 up",
		}, ipLogLines(t, ipLog))

		require.NoError(t, output.Close(ctx))
	})

	t.Run("주소가 이미 있으면 설정과 해제를 건너뜀", func(t *testing.T) {
		cfg := testConfig(t)
		writeSysfsDevice(t, cfg.Paths.SysfsNetDir, "citest0", "00:16:3e:aa:bb:cc", "down")
		cfg.DHCP.ClientPath = installFakeDhclient(t, fakeDhclientScript)
		ipLog := installFakeIP(t, addrExistsIPScript)

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		useCase := appContainer.GetProvisionConnectivityUseCase()
		output, err := useCase.Execute(ctx, usecases.ProvisionConnectivityInput{
			Interface: "citest0",
			IPv4:      true,
		})

		require.NoError(t, err)
		assert.False(t, output.Degraded)
		require.NotNil(t, output.Lease)

		assert.Equal(t, []string{
			"link set dev citest0 up",
			"-family inet addr add 192.168.1.50/24 broadcast 192.168.1.255 dev citest0",
		}, ipLogLines(t, ipLog))

		require.NoError(t, output.Close(ctx))
		assert.Len(t, ipLogLines(t, ipLog), 2, "설정하지 않았으므로 해제할 것도 없어야 함")
	})

	t.Run("IPv6 단독 프로비저닝", func(t *testing.T) {
		cfg := testConfig(t)
		writeSysfsDevice(t, cfg.Paths.SysfsNetDir, "citest0", "00:16:3e:aa:bb:cc", "down")
		ipLog := installFakeIP(t, fakeIPScript)

		appContainer, err := container.NewContainer(cfg, logger)
		require.NoError(t, err)
		defer appContainer.Close()

		useCase := appContainer.GetProvisionConnectivityUseCase()
		output, err := useCase.Execute(ctx, usecases.ProvisionConnectivityInput{
			Interface: "citest0",
			IPv6:      true,
		})

		require.NoError(t, err)
		assert.Nil(t, output.Lease)
		assert.Equal(t, []string{"link set dev citest0 up"}, ipLogLines(t, ipLog))

		require.NoError(t, output.Close(ctx))
	})
}

func TestLeaseArchiveIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("통합 테스트는 -short 플래그와 함께 실행시 스킵됩니다")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Paths.LeaseArchiveDir, 0o755))

	// 오래된 파일의 리스는 최신 파일에 가려져야 합니다
	older := time.Now().Add(-time.Hour)
	oldFile := filepath.Join(cfg.Paths.LeaseArchiveDir, "dhclient-old.leases")
	writeFile(t, oldFile, oldArchiveLeases)
	require.NoError(t, os.Chtimes(oldFile, older, older))
	writeFile(t, filepath.Join(cfg.Paths.LeaseArchiveDir, "dhclient-citest0.leases"), newArchiveLeases)

	appContainer, err := container.NewContainer(cfg, logger)
	require.NoError(t, err)
	defer appContainer.Close()

	archive := appContainer.GetLeaseArchive()

	t.Run("가장 최근 리스 파일의 마지막 리스", func(t *testing.T) {
		lease, err := archive.LatestLease("citest0")

		require.NoError(t, err)
		assert.Equal(t, "10.0.0.6", lease.Address())
		assert.Equal(t, "10.0.0.1", lease.Router())
	})

	t.Run("리스가 없는 인터페이스", func(t *testing.T) {
		lease, err := archive.LatestLease("citest9")

		assert.Error(t, err)
		assert.True(t, domainErrors.IsNotFoundError(err))
		assert.Nil(t, lease)
	})
}

// testConfig는 통합 테스트 하나가 통째로 소유하는 임시 트리 위의 설정을 만듭니다.
// ProcDir만 실제 /proc를 가리킵니다 (cmdline 조회와 데몬 재부모화 감시용)
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmp := t.TempDir()

	sysfsNetDir := filepath.Join(tmp, "sys", "class", "net")
	require.NoError(t, os.MkdirAll(sysfsNetDir, 0o755))

	return &config.Config{
		Paths: config.PathsConfig{
			SysfsNetDir:       sysfsNetDir,
			ProcDir:           "/proc",
			RunDir:            filepath.Join(tmp, "run"),
			LeaseArchiveDir:   filepath.Join(tmp, "archive"),
			NetworkConfigPath: filepath.Join(tmp, "network-config"),
		},
		DHCP: config.DHCPConfig{
			Backend:               config.BackendDhclient,
			ClientSearchPaths:     []string{"/sbin", "/usr/sbin", "/bin", "/usr/bin"},
			DiscoveryTimeout:      30 * time.Second,
			ArtifactPollInterval:  10 * time.Millisecond,
			ArtifactWaitTimeout:   5 * time.Second,
			DaemonizePollInterval: 10 * time.Millisecond,
			DaemonizeWaitTimeout:  time.Second,
		},
		Network: config.NetworkConfig{
			CommandTimeout:      10 * time.Second,
			SettleTimeout:       5 * time.Second,
			ConnectivityTimeout: time.Second,
		},
		Log: config.LogConfig{
			Level: "fatal",
		},
	}
}

// writeSysfsDevice는 임시 sysfs 트리에 네트워크 디바이스 디렉토리를 만듭니다
func writeSysfsDevice(t *testing.T, netDir, name, mac, operstate string) {
	t.Helper()
	dir := filepath.Join(netDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeFile(t, filepath.Join(dir, "address"), mac+"\n")
	writeFile(t, filepath.Join(dir, "operstate"), operstate+"\n")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeExecutable(t *testing.T, path, script string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
}

// installFakeIP는 ip 호출을 가로채 인자만 기록하는 스크립트를 PATH 앞에 심고
// 호출 기록 파일의 경로를 반환합니다. 폴백 선택이 실행하는 udevadm도 함께 심습니다
func installFakeIP(t *testing.T, script string) string {
	t.Helper()
	binDir := t.TempDir()
	ipLog := filepath.Join(binDir, "ip.log")

	writeExecutable(t, filepath.Join(binDir, "ip"), script)
	writeExecutable(t, filepath.Join(binDir, "udevadm"), fakeUdevadmScript)

	t.Setenv("IP_LOG", ipLog)
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return ipLog
}

// installFakeDhclient는 가짜 dhclient 스크립트를 설치하고 절대 경로를 반환합니다
func installFakeDhclient(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dhclient")
	writeExecutable(t, path, script)
	return path
}

// ipLogLines는 가짜 ip 스크립트가 기록한 호출 인자 목록을 반환합니다
func ipLogLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

const renameNetworkConfig = `network:
  version: 2
  ethernets:
    nic0:
      match:
        macaddress: "00:16:3e:aa:bb:cc"
      set-name: eth7
`

// 가짜 ip: 호출 인자를 한 줄씩 기록만 하고 성공합니다
const fakeIPScript = `#!/bin/sh
printf '%s\n' "$*" >> "${IP_LOG}"
`

// 가짜 ip: addr add에만 "File exists"로 응답해 주소가 이미 있는 상황을 흉내냅니다
const addrExistsIPScript = `#!/bin/sh
printf '%s\n' "$*" >> "${IP_LOG}"
case "$*" in
*"addr add"*)
	printf 'RTNETLINK answers: File exists\n' >&2
	exit 2
	;;
esac
`

const fakeUdevadmScript = `#!/bin/sh
exit 0
`

// 가짜 dhclient: 실제 탐색 없이 리스 파일을 쓰고, 백그라운드 프로세스를 남겨
// 데몬화(pid 파일 기록 후 init로 재부모화)까지 흉내냅니다.
// 리다이렉트가 없으면 상속된 파이프 때문에 실행기가 반환하지 못합니다
const fakeDhclientScript = `#!/bin/sh
while [ $# -gt 0 ]; do
	case "$1" in
	-lf) LEASE="$2"; shift 2 ;;
	-pf) PID="$2"; shift 2 ;;
	*) shift ;;
	esac
done
cat > "${LEASE}" <<'EOF'
lease {
  interface "citest0";
  fixed-address 192.168.1.50;
  option subnet-mask 255.255.255.0;
  option routers 192.168.1.1;
}
EOF
sleep 30 > /dev/null 2>&1 &
printf '%s\n' "$!" > "${PID}"
`

const failingDhclientScript = `#!/bin/sh
exit 1
`

const oldArchiveLeases = `lease {
  interface "citest0";
  fixed-address 10.0.0.9;
  option subnet-mask 255.255.255.0;
}
`

const newArchiveLeases = `lease {
  interface "eth0";
  fixed-address 10.0.0.7;
  option subnet-mask 255.255.255.0;
}
lease {
  interface "citest0";
  fixed-address 10.0.0.5;
  option subnet-mask 255.255.255.0;
}
lease {
  interface "citest0";
  fixed-address 10.0.0.6;
  option subnet-mask 255.255.255.0;
  option routers 10.0.0.1;
}
`
