package main

import (
	"context"
	"fmt"
	"time"

	"brandbuzz/internal/audit"
	"brandbuzz/internal/auth"
	"brandbuzz/internal/automation"
	"brandbuzz/internal/calls"
	"brandbuzz/internal/campaigns"
	"brandbuzz/internal/config"
	"brandbuzz/internal/contacts"
	"brandbuzz/internal/dispatch"
	"brandbuzz/internal/events"
	"brandbuzz/internal/httpapi"
	"brandbuzz/internal/pricing"
	"brandbuzz/internal/providers"
	"brandbuzz/internal/rbac"
	"brandbuzz/internal/reporting"
	"brandbuzz/internal/routing"
	"brandbuzz/internal/smm"
	"brandbuzz/internal/telephony"
	"brandbuzz/internal/users"
	"brandbuzz/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const dispatchSlotTTL = 15 * time.Minute

type deps struct {
	handlers httpapi.Handlers
	auth     *auth.Manager
	wallet   *wallet.Service
	users    *users.Service
	calls    *calls.Service
	rdb      *redis.Client
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// buildDeps constructs every service over MongoDB. Nothing here is global;
// each service receives its collaborators explicitly.
func buildDeps(ctx context.Context, cfg config.Config, db *mongo.Database, rdb *redis.Client, pub events.Publisher, jobs automation.Enqueuer, am *auth.Manager) (deps, error) {
	auditRepo := audit.NewMongoRepo(db)
	usersRepo := users.NewMongoRepo(db)
	contactsRepo := contacts.NewMongoRepo(db)
	campaignsRepo := campaigns.NewMongoRepo(db)
	walletRepo := wallet.NewMongoRepo(db)
	callsRepo := calls.NewMongoRepo(db)
	smmRepo := smm.NewMongoRepo(db)
	jobsRepo := automation.NewMongoRepo(db)

	for _, ix := range []indexer{auditRepo, usersRepo, contactsRepo, campaignsRepo, walletRepo, callsRepo, smmRepo, jobsRepo} {
		if err := ix.EnsureIndexes(ctx); err != nil {
			return deps{}, err
		}
	}

	card, err := rateCard(cfg)
	if err != nil {
		return deps{}, err
	}
	pricer := pricing.NewService(card)

	auditSvc := audit.NewService(auditRepo)
	usersSvc := users.NewService(usersRepo, cfg.Pricing.Currency)
	walletSvc := wallet.NewService(walletRepo, cfg.Pricing.Currency, auditSvc)
	contactsSvc := contacts.NewService(contactsRepo, auditSvc)
	campaignsSvc := campaigns.NewService(campaignsRepo, auditSvc)
	callsSvc := calls.NewService(callsRepo, pricer, walletSvc, campaignsSvc, pub)

	var limiter dispatch.Limiter = dispatch.NewMemoryLimiter(cfg.Redis.DispatchConcurrency)
	var cache smm.ServicesCache = smm.NewMemoryCache()
	if rdb != nil {
		limiter = dispatch.NewRedisLimiter(rdb, cfg.Redis.DispatchConcurrency, dispatchSlotTTL)
		cache = smm.NewRedisCache(rdb)
	}

	dispatcher := dispatch.New(dispatch.Deps{
		Contacts:  contactsSvc,
		Adapters:  providers.NewRegistry(adapters(cfg)...),
		Pricer:    pricer,
		Ledger:    walletSvc,
		Campaigns: campaignsSvc,
		Calls:     callsSvc,
		Limiter:   limiter,
		Events:    pub,
	})

	return deps{
		handlers: httpapi.Handlers{
			Auth:       am,
			Users:      usersSvc,
			Contacts:   contactsSvc,
			Campaigns:  campaignsSvc,
			Wallet:     walletSvc,
			Dispatcher: dispatcher,
			Calls:      callsSvc,
			SMM:        smm.NewService(smmRepo, smm.NewClient(cfg.SMM.URL, cfg.SMM.Key), cache, pricer, walletSvc, pub, cfg.SMM.CacheTTL),
			Automation: automation.NewService(jobsRepo, jobs, cfg.Automation.MaxSteps),
			Reports:    reporting.NewService(reporting.Sources{Campaigns: campaignsSvc, Calls: callsSvc, Wallet: walletSvc}),
		},
		auth:   am,
		wallet: walletSvc,
		users:  usersSvc,
		calls:  callsSvc,
		rdb:    rdb,
	}, nil
}

func rateCard(cfg config.Config) (pricing.RateCard, error) {
	p := cfg.Pricing
	card := pricing.RateCard{
		Currency: p.Currency,
		Channels: map[providers.Channel]pricing.ChannelRate{
			providers.ChannelSMS:      {UnitMinor: p.SMSMinor, Policy: pricing.ChargePolicy(p.SMSPolicy)},
			providers.ChannelWhatsApp: {UnitMinor: p.WhatsAppMinor, Policy: pricing.ChargePolicy(p.WhatsAppPolicy)},
			providers.ChannelEmail:    {UnitMinor: p.EmailMinor, Policy: pricing.ChargePolicy(p.EmailPolicy)},
			// A voice recipient is charged one minute up front; longer calls
			// are topped up when they complete.
			providers.ChannelVoice: {UnitMinor: p.VoiceMinuteMinor, Policy: pricing.ChargePolicy(p.VoicePolicy)},
		},
		VoiceMinuteMinor:        p.VoiceMinuteMinor,
		BillingIncrementSeconds: 60,
		SMMMarkupPercent:        cfg.SMM.MarkupPercent,
	}
	for ch, r := range card.Channels {
		if !r.Policy.Valid() {
			return pricing.RateCard{}, fmt.Errorf("invalid charge policy %q for %s", r.Policy, ch)
		}
	}
	return card, nil
}

// adapters returns a throttled adapter for every configured provider.
// Channels without credentials stay unregistered and report 503.
func adapters(cfg config.Config) []providers.Adapter {
	var out []providers.Adapter
	if cfg.Fast2SMS.APIKey != "" {
		out = append(out, providers.Throttle(providers.NewFast2SMS(providers.Fast2SMSConfig{
			APIKey:   cfg.Fast2SMS.APIKey,
			BaseURL:  cfg.Fast2SMS.BaseURL,
			SenderID: cfg.Fast2SMS.SenderID,
			Route:    cfg.Fast2SMS.Route,
		}), cfg.Fast2SMS.SendsPerSecond, 1))
	}
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		client := providers.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
		out = append(out, providers.Throttle(providers.NewTwilioVoice(client, providers.TwilioVoiceConfig{
			CallerID:          cfg.Twilio.CallerID,
			StatusCallback:    cfg.CallbackURL("/api/voice/webhook"),
			RecordingCallback: cfg.CallbackURL("/api/calling/recording-webhook"),
		}), cfg.Twilio.SendsPerSecond, 1))
		if cfg.Twilio.WhatsAppFrom != "" {
			out = append(out, providers.Throttle(
				providers.NewTwilioWhatsApp(client, cfg.Twilio.WhatsAppFrom, cfg.CallbackURL("/api/whatsapp/status-webhook")),
				cfg.Twilio.SendsPerSecond, 1))
		}
	}
	if cfg.SMTP.Host != "" {
		out = append(out, providers.Throttle(providers.NewSMTP(providers.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}), cfg.SMTP.SendsPerSecond, 1))
	}
	return out
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, d deps) {
	r.Use(httpapi.CORS(cfg.AllowedOrigins()))
	r.Use(httpapi.RateLimit(d.rdb, cfg.Redis.RateLimitPerMinute))

	// Inbound calls are routed by the owner's balance and forward numbers.
	// Without a Twilio account nothing can be bridged, so callers get voicemail.
	router := routing.NewNoopEngine()
	if cfg.Twilio.AccountSID != "" {
		engine := routing.NewRoutingEngine(d.wallet, d.users, cfg.Pricing.VoiceMinuteMinor, nil)
		router = routing.NewEngineAdapter(engine, routing.AdapterOptions{CallerID: cfg.Twilio.CallerID})
	}
	inbound := telephony.TwilioWebhookHandler{
		Router: router,
		OwnerResolver: func(ctx context.Context, to string) (string, error) {
			u, err := d.users.OwnerOfNumber(ctx, to)
			if err != nil {
				return "", err
			}
			return u.ID.Hex(), nil
		},
		Recorder:           d.calls,
		RecordingCallback:  cfg.CallbackURL("/api/calling/recording-webhook"),
		TranscribeCallback: cfg.CallbackURL("/api/calling/transcription-webhook"),
	}

	g := httpapi.Guards{
		Paid:    wallet.RequirePositiveBalance(d.wallet, httpapi.UserIDFromRequest),
		Admin:   []gin.HandlerFunc{auth.RequireAccessToken(d.auth), rbac.RequireAnyRole(rbac.RoleAdmin)},
		Inbound: inbound.HandleInboundCall,
	}
	if cfg.Twilio.ValidateSignatures {
		g.Twilio = telephony.RequireTwilioSignature(cfg.Twilio.AuthToken, cfg.App.PublicBaseURL)
	}

	d.handlers.Register(r, g)
}
