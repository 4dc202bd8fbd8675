package services

import (
	"testing"

	"github.com/epmosta/maintenance-api/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Setup("test")
	m.Run()
}
