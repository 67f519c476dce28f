package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ontology-mapper/internal/config"
	"ontology-mapper/internal/database"
	"ontology-mapper/internal/repositories"
	"ontology-mapper/internal/utils"
)

// systemSchemas are server-internal databases excluded from discovery.
var systemSchemas = []string{"information_schema", "mysql", "performance_schema", "sys"}

// DiscoveredDatabase is one schema present on a server. Configured marks
// schemas that are part of the extraction config.
type DiscoveredDatabase struct {
	Name       string
	Configured bool
}

// EndpointResult lists the databases found on one host:port. Err is set when
// no configured credential set could connect or the listing itself failed.
type EndpointResult struct {
	Host      string
	Port      int
	Databases []DiscoveredDatabase
	Err       error
}

// DiscoveryService lists all databases present on the configured servers,
// independent of the extraction pipeline.
type DiscoveryService struct {
	connect Connector
	logger  *zap.Logger
}

func NewDiscoveryService(logger *zap.Logger) *DiscoveryService {
	return &DiscoveryService{
		connect: database.Connect,
		logger:  logger,
	}
}

// ListServerDatabases groups the configs by host:port and lists each
// endpoint's databases once, in first-configured order. Credentials are
// tried in config order until one connects; system schemas are skipped.
func (s *DiscoveryService) ListServerDatabases(ctx context.Context, configs []config.ServerConfig) []EndpointResult {
	type endpoint struct {
		host string
		port int
	}

	order := make([]endpoint, 0, len(configs))
	grouped := make(map[endpoint][]config.ServerConfig)
	for _, cfg := range configs {
		ep := endpoint{host: cfg.Host, port: cfg.Port}
		if _, seen := grouped[ep]; !seen {
			order = append(order, ep)
		}
		grouped[ep] = append(grouped[ep], cfg)
	}

	results := make([]EndpointResult, 0, len(order))
	for _, ep := range order {
		results = append(results, s.discoverEndpoint(ctx, ep.host, ep.port, grouped[ep]))
	}
	return results
}

func (s *DiscoveryService) discoverEndpoint(ctx context.Context, host string, port int, candidates []config.ServerConfig) EndpointResult {
	result := EndpointResult{Host: host, Port: port}

	configured := make(map[string]bool, len(candidates))
	for _, cfg := range candidates {
		configured[cfg.Name] = true
	}

	var lastErr error
	for _, cfg := range candidates {
		probe := cfg
		probe.Name = "information_schema"

		conn, err := s.connect(ctx, probe, s.logger)
		if err != nil {
			s.logger.Debug("credential set rejected, trying next",
				zap.String("host", host),
				zap.String("user", cfg.User),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		names, err := repositories.NewCatalogRepository(conn.DB()).ListDatabases(ctx)
		conn.Close()
		if err != nil {
			lastErr = err
			continue
		}

		result.Databases = make([]DiscoveredDatabase, 0, len(names))
		for _, name := range names {
			if utils.Contains(systemSchemas, name) {
				continue
			}
			result.Databases = append(result.Databases, DiscoveredDatabase{
				Name:       name,
				Configured: configured[name],
			})
		}
		return result
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no credentials configured for %s:%d", host, port)
	}
	result.Err = lastErr
	return result
}
