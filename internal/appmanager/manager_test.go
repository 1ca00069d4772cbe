package appmanager

import (
	"errors"
	"testing"

	"OrderOps/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start() error {
	*f.log = append(*f.log, "start "+f.name)
	return f.startErr
}

func (f *fakeService) Stop() error {
	*f.log = append(*f.log, "stop "+f.name)
	return f.stopErr
}

const sequence = `
services:
  - name: cron
    start_order: 3
    config:
      backfill_schedule: "*/10 * * * *"
  - name: logger
    start_order: 1
    config:
      folder_path: ./logs
      max_file_mb: 10
  - name: backoffice
    start_order: 2
    config:
      port: 8143
      enabled: false
`

func TestParseServiceSequenceSorts(t *testing.T) {
	cfgs, err := ParseServiceSequence([]byte(sequence))
	require.NoError(t, err)
	require.Len(t, cfgs, 3)
	assert.Equal(t, "logger", cfgs[0].Name)
	assert.Equal(t, "backoffice", cfgs[1].Name)
	assert.Equal(t, "cron", cfgs[2].Name)
	assert.Equal(t, 10, cfgs[0].Config["max_file_mb"])
}

func TestAutoRegisterServices(t *testing.T) {
	cfgs, err := ParseServiceSequence([]byte(sequence))
	require.NoError(t, err)
	t.Cleanup(func() { logger.SetGlobalLogger(nil) })

	am := NewAppManager()
	require.NoError(t, am.AutoRegisterServices(cfgs))
	assert.NotNil(t, am.GetServiceByName("logger"))
	assert.NotNil(t, am.GetServiceByName("cron"))
	assert.Nil(t, am.GetServiceByName("backoffice"))
	assert.NotNil(t, logger.GlobalLogger)

	err = NewAppManager().AutoRegisterServices([]ServiceConfig{{Name: "fx"}})
	assert.Error(t, err)
}

func TestStartAllRollsBack(t *testing.T) {
	var log []string
	am := NewAppManager()
	am.RegisterService(&fakeService{name: "a", log: &log})
	am.RegisterService(&fakeService{name: "b", log: &log})
	am.RegisterService(&fakeService{name: "c", startErr: errors.New("port in use"), log: &log})

	err := am.StartAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c")
	assert.Equal(t, []string{"start a", "start b", "start c", "stop b", "stop a"}, log)
}

func TestStopAllReportsEveryFailure(t *testing.T) {
	var log []string
	am := NewAppManager()
	am.RegisterService(&fakeService{name: "a", stopErr: errors.New("x"), log: &log})
	am.RegisterService(&fakeService{name: "b", stopErr: errors.New("y"), log: &log})

	err := am.StopAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, []string{"stop b", "stop a"}, log)
}
