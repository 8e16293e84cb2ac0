package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"didgate/internal/audit/stream"
	authzhandler "didgate/internal/authorization/handler"
	authzmetrics "didgate/internal/authorization/metrics"
	authzservice "didgate/internal/authorization/service"
	authzstore "didgate/internal/authorization/store"
	credhandler "didgate/internal/credential/handler"
	credmetrics "didgate/internal/credential/metrics"
	credservice "didgate/internal/credential/service"
	credstore "didgate/internal/credential/store"
	gwhandler "didgate/internal/gateway/handler"
	gwmetrics "didgate/internal/gateway/metrics"
	gwservice "didgate/internal/gateway/service"
	gwstore "didgate/internal/gateway/store"
	idhandler "didgate/internal/identity/handler"
	idservice "didgate/internal/identity/service"
	idstore "didgate/internal/identity/store"
	orghandler "didgate/internal/organization/handler"
	orgservice "didgate/internal/organization/service"
	orgstore "didgate/internal/organization/store"
	"didgate/internal/organization/token"
	"didgate/internal/platform/config"
	"didgate/internal/platform/health"
	"didgate/internal/platform/kafka"
	"didgate/internal/platform/kafka/producer"
	"didgate/internal/platform/logger"
	preshandler "didgate/internal/presentation/handler"
	presmetrics "didgate/internal/presentation/metrics"
	presservice "didgate/internal/presentation/service"
	"didgate/internal/proof"
	httptransport "didgate/internal/transport/http"
	"didgate/internal/wallet"
	id "didgate/pkg/domain"
	audit "didgate/pkg/platform/audit"
	auditmetrics "didgate/pkg/platform/audit/metrics"
	"didgate/pkg/platform/audit/publisher"
	"didgate/pkg/platform/middleware/request"
	"didgate/pkg/platform/tracer"
	"didgate/pkg/secrets"
)

const (
	shutdownTimeout = 10 * time.Second
	auditBuffer     = 1024
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing didgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"docstore", cfg.Backend,
		"proof_suite", cfg.ProofSuite,
	)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer st.Close() //nolint:errcheck // shutdown path

	// Audit: durable store, optionally mirrored to Kafka, behind an async publisher.
	var sink audit.Sink = st.audit
	var kafkaProducer *producer.Producer
	if cfg.KafkaBrokers != "" {
		kafkaProducer, err = producer.New(kafka.DefaultProducerConfig(cfg.KafkaBrokers), log)
		if err != nil {
			return err
		}
		sink = publisher.Tee(st.audit, stream.New(kafkaProducer, cfg.AuditTopic))
	}
	pub := publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithMetrics(auditmetrics.New()),
		publisher.WithPublisherLogger(log),
	)
	auditor := audit.NewLogger(log, pub)

	app, err := wire(ctx, cfg, st, auditor, log)
	if err != nil {
		pub.Close()
		if kafkaProducer != nil {
			kafkaProducer.Close(ctx) //nolint:errcheck // init failure already reported
		}
		return err
	}

	healthHandler := health.New(cfg.Environment)
	for name, check := range st.checks {
		healthHandler.RegisterCheck(name, check)
	}
	if kafkaProducer != nil {
		// the audit mirror is best-effort; an outage degrades but does not unready
		healthHandler.RegisterOptionalCheck("kafka", kafkaProducer.Check)
	}

	router := httptransport.NewRouter(httptransport.Routes{
		Public:    app.public,
		Protected: app.protected,
		Health:    healthHandler,
	}, app.tokens, request.NewMetrics(), log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		// drain audit before the producer it may write to
		pub.Close()
		if kafkaProducer != nil {
			err = errors.Join(err, kafkaProducer.Close(shutdownCtx))
		}
		return err
	})
	return g.Wait()
}

// application holds the handlers and the token validator for the router.
type application struct {
	public    []httptransport.Registrar
	protected []httptransport.Registrar
	tokens    *token.Service
}

func wire(ctx context.Context, cfg config.Server, st *stores, auditor *audit.Logger, log *slog.Logger) (*application, error) {
	issuerDID, err := id.ParseDID(cfg.IssuerDID)
	if err != nil {
		return nil, fmt.Errorf("ISSUER_DID: %w", err)
	}
	issuerKey, err := issuerPrivateKey(cfg.IssuerSeed)
	if err != nil {
		return nil, err
	}
	if len(cfg.IssuerSeed) == 0 {
		log.Warn("ISSUER_SEED unset; generated an ephemeral issuer key")
	}

	dids := idstore.New(st.docs)
	keys := idservice.NewKeyResolver(dids)

	signWith, err := suite(cfg.ProofSuite)
	if err != nil {
		return nil, err
	}
	prover := proof.NewModule(signWith, keys,
		proof.WithSuites(proof.Ed25519Signature2020{}, proof.JSONWebSignature2020{}),
	)

	credentials, err := credservice.New(credstore.New(st.docs), prover,
		proof.NewKeySigner(issuerKey, issuerDID.URL("key-1")),
		credservice.WithValidity(cfg.CredentialValidity),
		credservice.WithLogger(log),
		credservice.WithAuditor(auditor),
		credservice.WithMetrics(credmetrics.New()),
	)
	if err != nil {
		return nil, err
	}

	sealer, err := secrets.NewSealer(cfg.WalletKey)
	if err != nil {
		return nil, fmt.Errorf("WALLET_KEY: %w", err)
	}
	holderWallet := wallet.New(st.docs, sealer)

	registry := idservice.New(dids, holderWallet, credentials,
		idservice.WithMinter(idservice.RandomMinter{Method: cfg.DIDMethod}),
		idservice.WithLogger(log),
		idservice.WithAuditor(auditor),
	)
	if err := registry.EnsureIssuer(ctx, issuerDID, issuerKey.Public().(ed25519.PublicKey)); err != nil {
		return nil, fmt.Errorf("publish issuer DID: %w", err)
	}

	presentations := presservice.New(prover, keys,
		presservice.WithJWTTTL(cfg.GrantTTL),
		presservice.WithTracer(tracer.NewOTel("didgate/presentation")),
		presservice.WithMetrics(presmetrics.New()),
		presservice.WithLogger(log),
	)

	grants := authzservice.New(authzstore.New(st.docs), registry, credentials, presentations, holderWallet,
		authzservice.WithGrantTTL(cfg.GrantTTL),
		authzservice.WithLogger(log),
		authzservice.WithAuditor(auditor),
		authzservice.WithMetrics(authzmetrics.New()),
	)

	gateway := gwservice.New(grants, st.audit, gwstore.New(st.docs), registry,
		gwservice.WithTracer(tracer.NewOTel("didgate/gateway")),
		gwservice.WithLogger(log),
		gwservice.WithAuditor(auditor),
		gwservice.WithMetrics(gwmetrics.New()),
	)

	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenIssuer, cfg.TokenAudience, cfg.TokenTTL)
	orgs := orgservice.New(orgstore.New(st.docs), tokens,
		orgservice.WithLogger(log),
		orgservice.WithAuditor(auditor),
	)

	return &application{
		public: []httptransport.Registrar{
			idhandler.New(registry, log),
			credhandler.New(credentials, log),
			authzhandler.New(grants, log),
			preshandler.New(presentations, log),
			orghandler.New(orgs, cfg.TokenTTL, log),
		},
		protected: []httptransport.Registrar{
			gwhandler.New(gateway, log),
		},
		tokens: tokens,
	}, nil
}

func issuerPrivateKey(seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) == ed25519.SeedSize {
		return ed25519.NewKeyFromSeed(seed), nil
	}
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate issuer key: %w", err)
	}
	return priv, nil
}

func suite(name string) (proof.Suite, error) {
	switch name {
	case proof.TypeEd25519Signature2020:
		return proof.Ed25519Signature2020{}, nil
	case proof.TypeJSONWebSignature2020:
		return proof.JSONWebSignature2020{}, nil
	}
	return nil, fmt.Errorf("unsupported proof suite %q", name)
}
