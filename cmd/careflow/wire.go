package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	routerx "github.com/techflow-labs/careflow/agent/agents/router"
	contractx "github.com/techflow-labs/careflow/agent/contract"
	llmx "github.com/techflow-labs/careflow/agent/llm"
	offersx "github.com/techflow-labs/careflow/agent/offers"
	statex "github.com/techflow-labs/careflow/agent/state"
	configx "github.com/techflow-labs/careflow/pkg/config"
	"github.com/techflow-labs/careflow/pkg/customerdb"
	"github.com/techflow-labs/careflow/pkg/policyrag"
)

// appConfig selects the backing services. The chat subcommand defaults
// to the local backends; serve is expected to run against redis and
// postgres.
type appConfig struct {
	StateBackend    string `envconfig:"STATE_BACKEND" split_words:"true" default:"memory"`
	CustomerBackend string `envconfig:"CUSTOMER_BACKEND" split_words:"true" default:"csv"`
	CustomerCSV     string `envconfig:"CUSTOMER_CSV" split_words:"true" default:"customers.csv"`
	AuditFile       string `envconfig:"AUDIT_FILE" split_words:"true" default:"retention_audit.jsonl"`
	RulesFile       string `envconfig:"RULES_FILE" split_words:"true"`
	PolicyEnabled   bool   `envconfig:"POLICY_ENABLED" split_words:"true" default:"false"`
}

func buildRouter(ctx context.Context) (*routerx.Router, error) {
	app, err := configx.New[appConfig]("CAREFLOW")
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}

	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return nil, fmt.Errorf("load model config: %w", err)
	}
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}
	registry, err := llmx.NewRegistry(ctx, *llmCfg)
	if err != nil {
		return nil, fmt.Errorf("build model registry: %w", err)
	}

	store, err := buildStore(*app)
	if err != nil {
		return nil, err
	}

	directory, audit, err := buildCustomerBackends(*app)
	if err != nil {
		return nil, err
	}

	rules, err := buildRules(*app)
	if err != nil {
		return nil, err
	}

	retriever, err := buildRetriever(*app)
	if err != nil {
		return nil, err
	}

	return routerx.New(store, registry, directory, retriever, audit, rules)
}

func buildStore(app appConfig) (statex.Store, error) {
	switch strings.ToLower(app.StateBackend) {
	case "memory":
		log.Warn().Msg("using in-memory session store, sessions are lost on restart")
		return statex.NewMemoryStore(), nil
	case "redis":
		cfg, err := configx.New[statex.RedisConfig]("REDIS")
		if err != nil {
			return nil, fmt.Errorf("load redis config: %w", err)
		}
		return statex.NewRedisStore(*cfg, statex.WithTTL(cfg.TTL))
	default:
		return nil, fmt.Errorf("unknown state backend %q", app.StateBackend)
	}
}

func buildCustomerBackends(app appConfig) (contractx.CustomerDirectory, contractx.AuditLog, error) {
	switch strings.ToLower(app.CustomerBackend) {
	case "csv":
		dir, err := customerdb.NewCSVDirectory(app.CustomerCSV)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Int("customers", dir.Len()).Str("path", app.CustomerCSV).Msg("customer csv loaded")
		return dir, customerdb.NewFileAudit(app.AuditFile), nil
	case "postgres":
		dbCfg, err := configx.New[customerdb.Config]("POSTGRES")
		if err != nil {
			return nil, nil, fmt.Errorf("load postgres config: %w", err)
		}
		db := customerdb.NewDB(*dbCfg)
		return customerdb.NewDirectory(db), customerdb.NewAudit(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown customer backend %q", app.CustomerBackend)
	}
}

func buildRules(app appConfig) (*offersx.Table, error) {
	if strings.TrimSpace(app.RulesFile) != "" {
		return offersx.LoadFile(app.RulesFile)
	}
	return offersx.LoadDefault()
}

func buildRetriever(app appConfig) (contractx.PolicyRetriever, error) {
	if !app.PolicyEnabled {
		return nil, nil
	}
	cfg, err := configx.New[policyrag.Config]("POLICY")
	if err != nil {
		return nil, fmt.Errorf("load policy retrieval config: %w", err)
	}
	return policyrag.NewClient(*cfg)
}
