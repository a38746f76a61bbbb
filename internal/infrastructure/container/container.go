package container

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/application/usecases"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/domain/services"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/adapters"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/config"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/dhcp"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/ephemeral"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/health"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/netconfig"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/netinfo"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/network"
	infraservices "github.com/canonical/cloud-init-sub001/internal/infrastructure/services"
)

// Container는 의존성 주입을 관리하는 컨테이너입니다.
// 부팅 오케스트레이션 코드가 네트워크 코어를 사용할 때의 컴포지션 루트입니다
type Container struct {
	config *config.Config
	logger *logrus.Logger

	// 인프라스트럭처 어댑터들
	fileSystem      interfaces.FileSystem
	commandExecutor interfaces.CommandExecutor
	clock           interfaces.Clock
	process         interfaces.ProcessController
	hardwareInfo    interfaces.HardwareInfoSource

	// 디바이스 조회
	sysfs          *netinfo.Sysfs
	inventory      *netinfo.Inventory
	fallbackFinder *netinfo.FallbackFinder

	// 링크 조작과 임시 범위
	linkManager   *network.IPRouteAdapter
	leaseAcquirer interfaces.LeaseAcquirer
	scopeFactory  *ephemeral.ScopeFactory
	connectivity  *health.HTTPConnectivityChecker

	// 서비스들
	planner      *services.RenamePlanner
	targetSource *netconfig.Source
	leaseArchive *infraservices.LeaseArchive

	// 유스케이스
	applyRenamesUseCase          *usecases.ApplyRenamesUseCase
	provisionConnectivityUseCase *usecases.ProvisionConnectivityUseCase
}

// NewContainer는 새로운 Container를 생성합니다
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	if err := container.initializeInfrastructure(); err != nil {
		return nil, err
	}

	if err := container.initializeServices(); err != nil {
		return nil, err
	}

	container.initializeUseCases()

	return container, nil
}

// NewDefaultLogger는 JSON 포맷과 LOG_LEVEL 환경 변수를 반영한 기본 로거를 생성합니다
func NewDefaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		level, err := logrus.ParseLevel(levelStr)
		if err != nil {
			logger.WithError(err).Warnf("Unknown LOG_LEVEL value: %s. Using default Info level.", levelStr)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}

// initializeInfrastructure는 인프라스트럭처 컴포넌트들을 초기화합니다
func (c *Container) initializeInfrastructure() error {
	// 기본 어댑터들 초기화
	c.fileSystem = adapters.NewRealFileSystem()
	c.commandExecutor = adapters.NewRealCommandExecutor()
	c.clock = adapters.NewRealClock()
	c.process = adapters.NewRealProcessController()

	// ethtool은 sysfs에 드라이버 정보가 없을 때의 폴백 경로라 실패해도 치명적이지 않습니다
	hardwareInfo, err := adapters.NewEthtoolInfoSource()
	if err != nil {
		c.logger.WithError(err).Warn("ethtool 핸들 생성 실패, sysfs 정보만 사용")
	} else {
		c.hardwareInfo = hardwareInfo
	}

	// 디바이스 조회 계층
	c.sysfs = netinfo.NewSysfs(c.fileSystem, c.config.Paths.SysfsNetDir)
	c.inventory = netinfo.NewInventory(c.sysfs, c.hardwareInfo, c.logger)
	c.fallbackFinder = netinfo.NewFallbackFinder(
		c.sysfs,
		c.fileSystem,
		c.commandExecutor,
		c.logger,
		c.config.Paths.ProcDir,
		c.config.Network.SettleTimeout,
	)

	// 링크 조작 어댑터
	c.linkManager = network.NewIPRouteAdapter(c.commandExecutor, c.logger, c.config.Network.CommandTimeout)

	return nil
}

// initializeServices는 서비스들을 초기화합니다
func (c *Container) initializeServices() error {
	// 연결성 검사기
	c.connectivity = health.NewHTTPConnectivityChecker(c.logger, c.config.Network.ConnectivityTimeout)

	// 설정된 백엔드의 리스 획득기 생성
	locator := adapters.NewRealBinaryLocator(c.fileSystem, c.config.DHCP.ClientSearchPaths)
	acquirerFactory := dhcp.NewAcquirerFactory(
		c.commandExecutor,
		c.fileSystem,
		c.clock,
		c.process,
		locator,
		c.sysfs,
		c.logger,
		c.config,
	)
	acquirer, err := acquirerFactory.CreateAcquirer()
	if err != nil {
		return err
	}
	c.leaseAcquirer = acquirer

	// 임시 네트워크 범위 팩토리
	c.scopeFactory = ephemeral.NewScopeFactory(
		c.commandExecutor,
		c.connectivity,
		c.leaseAcquirer,
		c.sysfs,
		c.logger,
		c.config.Network.ConnectivityURL,
	)

	// 이름 변경 계획자와 대상 소스
	c.planner = services.NewRenamePlanner()
	c.targetSource = netconfig.NewSource(c.fileSystem, c.logger, c.config.Paths.NetworkConfigPath)

	// 배포판 dhclient 리스 보관소 조회
	c.leaseArchive = infraservices.NewLeaseArchive(c.fileSystem, c.logger, c.config.Paths.LeaseArchiveDir)

	return nil
}

// initializeUseCases는 유스케이스들을 초기화합니다
func (c *Container) initializeUseCases() {
	c.applyRenamesUseCase = usecases.NewApplyRenamesUseCase(
		c.inventory,
		c.targetSource,
		c.linkManager,
		c.planner,
		c.logger,
	)

	c.provisionConnectivityUseCase = usecases.NewProvisionConnectivityUseCase(
		c.fallbackFinder,
		c.scopeFactory,
		c.logger,
	)
}

// GetConfig는 설정을 반환합니다
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDeviceInventory는 디바이스 인벤토리를 반환합니다
func (c *Container) GetDeviceInventory() interfaces.DeviceInventory {
	return c.inventory
}

// GetLeaseArchive는 배포판 리스 보관소 조회 서비스를 반환합니다
func (c *Container) GetLeaseArchive() *infraservices.LeaseArchive {
	return c.leaseArchive
}

// GetConnectivityChecker는 연결성 검사기를 반환합니다
func (c *Container) GetConnectivityChecker() interfaces.ConnectivityChecker {
	return c.connectivity
}

// GetApplyRenamesUseCase는 이름 변경 유스케이스를 반환합니다
func (c *Container) GetApplyRenamesUseCase() *usecases.ApplyRenamesUseCase {
	return c.applyRenamesUseCase
}

// GetProvisionConnectivityUseCase는 연결 구성 유스케이스를 반환합니다
func (c *Container) GetProvisionConnectivityUseCase() *usecases.ProvisionConnectivityUseCase {
	return c.provisionConnectivityUseCase
}

// Close는 컨테이너가 쥔 OS 핸들을 정리합니다
func (c *Container) Close() error {
	if closer, ok := c.hardwareInfo.(interface{ Close() }); ok {
		closer.Close()
	}
	return nil
}
