package constants

// 시스템 경로 상수들
const (
	// 시스템 네트워크 경로
	SysClassNet = "/sys/class/net"

	// proc 파일시스템 경로 (커널 cmdline, 프로세스 상태 조회용)
	ProcDir = "/proc"

	// DHCP 아티팩트 전용 디렉토리
	DefaultRunDir = "/run/cloud-init/net"

	// 배포판 dhclient 리스 보관 디렉토리
	DefaultLeaseArchiveDir = "/var/lib/dhcp"

	// 데이터소스가 남기는 network-config v2 파일
	DefaultNetworkConfigPath = "/run/cloud-init/network-config"
)

// DHCP 아티팩트 파일 이름들
const (
	LeaseFileName = "dhclient.lease"
	PidFileName   = "dhclient.pid"
)

// 네트워크 작업 관련 상수들
const (
	// 이름 충돌 회피용 임시 이름 접두사
	TempNamePrefix = "cirename"

	// 파일 권한
	ArtifactDirPermission = 0755

	// 타임아웃
	DefaultCommandTimeout = 30  // seconds
	DefaultSettleTimeout  = 120 // seconds
)

// 기본값 상수들
const (
	// dhclient 바이너리 이름
	DhclientBinaryName = "dhclient"

	// dhclient 훅 스크립트를 무력화할 때 -sf에 넘기는 무동작 스크립트
	NoOpScriptPath = "/bin/true"

	// 에이전트 기본값
	DefaultDHCPBackend = "dhclient"
	DefaultLogLevel    = "info"
)
