package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host: "ch", Port: 9000, Database: "omnitrade", User: "default", Password: "p@ss",
		DialTimeout: 5 * time.Second, UseHTTP: true,
	})
	assert.Equal(t, "http://default:p%40ss@ch:9000/omnitrade?dial_timeout=5s", dsn)
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}
