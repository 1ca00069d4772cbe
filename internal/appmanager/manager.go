package appmanager

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"OrderOps/api/backoffice"
	"OrderOps/internal/jobs"
	"OrderOps/internal/logger"
	"OrderOps/internal/serviceiface"
	"OrderOps/internal/store"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var st store.Store

// SetStore registers the store handed to every service constructor.
func SetStore(s store.Store) {
	st = s
}

func GetStore() store.Store {
	return st
}

var serviceConstructors = map[string]func(map[string]interface{}) serviceiface.Service{
	"logger": func(cfg map[string]interface{}) serviceiface.Service {
		return logger.NewLoggerService(cfg)
	},
	"backoffice": func(cfg map[string]interface{}) serviceiface.Service {
		return backoffice.NewBackofficeService(cfg, st)
	},
	"cron": func(cfg map[string]interface{}) serviceiface.Service {
		return jobs.NewCronService(cfg, st)
	},
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	mu       sync.Mutex
}

func NewAppManager() *AppManager {
	return &AppManager{
		services: make([]serviceiface.Service, 0),
	}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

// StartAll starts services in registration order. Services already started
// are stopped again when a later one fails.
func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()

	for i, service := range am.services {
		zap.L().Info("starting service", zap.String("service", service.Name()))
		if err := service.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = am.services[j].Stop()
			}
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
	}
	return nil
}

// StopAll stops services in reverse order and reports every failure.
func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	var errs []error
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop service %s: %w", svc.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseServiceSequence(data)
}

func ParseServiceSequence(data []byte) ([]ServiceConfig, error) {
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}

	// sort by start_order
	sort.SliceStable(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})

	return seq.Services, nil
}

// AutoRegisterServices builds every known service named in configs. Disabled
// entries (config.enabled: false) are skipped; unknown names are an error.
func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) error {
	for _, svc := range configs {
		if enabled, ok := svc.Config["enabled"].(bool); ok && !enabled {
			continue
		}
		constructor, ok := serviceConstructors[svc.Name]
		if !ok {
			return fmt.Errorf("unknown service %q in service sequence", svc.Name)
		}
		if svc.Config == nil {
			svc.Config = map[string]interface{}{}
		}
		am.RegisterService(constructor(svc.Config))
	}

	for _, svc := range am.services {
		if l, ok := svc.(*logger.LoggerService); ok {
			logger.SetGlobalLogger(l)
			break
		}
	}
	return nil
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}
